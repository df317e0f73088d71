package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog and exposure totals",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	h, err := openHandles()
	if err != nil {
		return err
	}
	defer h.Close()

	stats, err := h.engine.GetStats()
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(stats)
	}

	fmt.Printf("Catalog:  %d kanji, %d distinct radicals", stats.TotalKanji, stats.TotalRadicals)
	if stats.CatalogVersion != "" {
		fmt.Printf(" (dataset %s)", stats.CatalogVersion)
	}
	fmt.Println()
	fmt.Printf("Tracked:  %d kanji with recorded exposure, %d encounters in total\n",
		stats.TrackedKanji, stats.TotalEncounters)
	fmt.Printf("Database: %s, %.1f KB\n", cfg.Store.Path, float64(stats.SizeBytes)/1024)
	return nil
}
