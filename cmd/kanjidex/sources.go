package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kanjidex/kanjidex/pkg/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources [id]",
	Short: "List imported sources, or show one source's kanji",
	Long: `Without arguments, list every imported source with its progress. With
a source id, show its details and the kanji read in it, most frequent
first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)

	sourcesCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSources(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	h, err := openHandles()
	if err != nil {
		return err
	}
	defer h.Close()

	if len(args) == 0 {
		list, err := source.List(h.conn)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(list)
		}
		if len(list) == 0 {
			fmt.Println("No sources imported yet.")
			return nil
		}
		for _, s := range list {
			fmt.Println(formatSource(s))
		}
		return nil
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("source id must be a number, got %q", args[0])
	}
	s, err := source.GetByID(h.conn, id)
	if err != nil {
		return err
	}
	links, err := source.KanjiForSource(h.conn, id)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(struct {
			Source *source.Source     `json:"source"`
			Kanji  []source.KanjiLink `json:"kanji"`
		}{s, links})
	}

	fmt.Println(formatSource(*s))
	if s.URL != "" {
		fmt.Printf("  %s\n", s.URL)
	}
	if len(links) > 0 {
		chars := make([]string, 0, len(links))
		for _, l := range links {
			chars = append(chars, fmt.Sprintf("%s(%d)", l.Character, l.OccurrenceCount))
		}
		fmt.Printf("\nKanji read here (%d distinct):\n  %s\n", len(links), strings.Join(chars, " "))
	}
	return nil
}

func formatSource(s source.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", s.ID, s.Title)
	if s.Author != "" {
		fmt.Fprintf(&b, " by %s", s.Author)
	}
	fmt.Fprintf(&b, " (%s", s.SourceType)
	if s.LastProcessedSegment >= 0 {
		fmt.Fprintf(&b, ", %d segments processed", s.LastProcessedSegment+1)
	}
	b.WriteString(")")
	return b.String()
}
