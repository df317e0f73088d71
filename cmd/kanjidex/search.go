package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kanjidex/kanjidex/pkg/catalog"
	"github.com/kanjidex/kanjidex/pkg/engine"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the kanji catalog",
	Long: `Search the catalog by free text and categorical filters. The query
matches the character itself, English meanings (case-insensitive), and
readings in either kana script. Filters combine with AND; results are
ordered by stroke count.`,
	Example: `  # Find kanji glossed as "water"
  kanjidex search water

  # All N5 kanji with 4 strokes
  kanjidex search --exam-level 5 --strokes 4

  # Page through the very common band
  kanjidex search --frequency "very common" --limit 20 --offset 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Int("exam-level", 0, "Restrict to one proficiency level (1-5, lower is harder)")
	searchCmd.Flags().Int("strokes", 0, "Restrict to an exact stroke count")
	searchCmd.Flags().String("frequency", "", `Restrict to a frequency band: "very common", "common", "uncommon", "rare"`)
	searchCmd.Flags().Int("limit", catalog.DefaultLimit, "Page size")
	searchCmd.Flags().Int("offset", 0, "Rows to skip")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	examLevel, _ := cmd.Flags().GetInt("exam-level")
	strokes, _ := cmd.Flags().GetInt("strokes")
	frequency, _ := cmd.Flags().GetString("frequency")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	jsonOut, _ := cmd.Flags().GetBool("json")

	f := catalog.Filter{
		FrequencyClass: frequency,
		Limit:          limit,
		Offset:         offset,
	}
	if len(args) == 1 {
		f.Query = args[0]
	}
	if examLevel != 0 {
		f.ExamLevel = &examLevel
	}
	if strokes != 0 {
		f.StrokeCount = &strokes
	}

	h, err := openHandles()
	if err != nil {
		return err
	}
	defer h.Close()

	page, err := h.engine.Search(f)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(page)
	}

	if page.TotalCount == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, entry := range page.Results {
		fmt.Println(formatSearchEntry(entry))
	}
	fmt.Printf("\nShowing %d of %d matches.\n", len(page.Results), page.TotalCount)
	return nil
}

func formatSearchEntry(e engine.SearchEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s  %2d strokes", e.Character, e.StrokeCount)
	if e.ExamLevel != nil {
		fmt.Fprintf(&b, "  N%d", *e.ExamLevel)
	}
	fmt.Fprintf(&b, "  %-11s", catalog.FrequencyClass(e.FrequencyRank))
	if len(e.Meanings) > 0 {
		meanings := e.Meanings
		if len(meanings) > 3 {
			meanings = meanings[:3]
		}
		fmt.Fprintf(&b, "  %s", strings.Join(meanings, ", "))
	}
	if e.TimesSeen > 0 {
		fmt.Fprintf(&b, "  (seen %dx)", e.TimesSeen)
	}
	return b.String()
}
