package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/kanjidex/kanjidex/pkg/source"
)

var kanjiCmd = &cobra.Command{
	Use:   "kanji CHARACTER",
	Short: "Show everything known about one kanji",
	Long: `Show one kanji's catalog entry joined with your exposure state:
meanings, readings, stroke count, proficiency level, frequency, where
you have read it, and how often.`,
	Example: `  kanjidex kanji 水

  # Record a sighting while looking it up
  kanjidex kanji 水 --mark-seen`,
	Args: cobra.ExactArgs(1),
	RunE: runKanji,
}

func init() {
	rootCmd.AddCommand(kanjiCmd)

	kanjiCmd.Flags().Bool("mark-seen", false, "Record one encounter before showing the entry")
	kanjiCmd.Flags().Bool("json", false, "Output as JSON")
}

func runKanji(cmd *cobra.Command, args []string) error {
	markSeen, _ := cmd.Flags().GetBool("mark-seen")
	jsonOut, _ := cmd.Flags().GetBool("json")

	ch := args[0]
	if utf8.RuneCountInString(ch) != 1 {
		return fmt.Errorf("pass exactly one character, got %q", ch)
	}

	h, err := openHandles()
	if err != nil {
		return err
	}
	defer h.Close()

	if markSeen {
		if err := h.engine.RecordEncounter(ch); err != nil {
			return err
		}
	}

	detail, err := h.engine.GetByCharacter(ch)
	if err != nil {
		return err
	}
	if detail == nil {
		// Not in the catalog; exposure may still be tracked.
		exp, err := h.engine.GetExposure(ch)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(map[string]interface{}{"character": ch, "inCatalog": false, "exposure": exp})
		}
		fmt.Printf("%s is not in the catalog.\n", ch)
		if exp != nil {
			fmt.Printf("Seen %dx, first on %s.\n", exp.TimesSeen, exp.FirstSeenAt.Format("2006-01-02"))
		}
		return nil
	}

	sources, err := source.SourcesForKanji(h.conn, ch)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(struct {
			Detail  interface{} `json:"detail"`
			Sources interface{} `json:"sources,omitempty"`
		}{detail, sources})
	}

	fmt.Printf("%s  %d strokes\n", detail.Character, detail.StrokeCount)
	if len(detail.Meanings) > 0 {
		fmt.Printf("Meanings:  %s\n", strings.Join(detail.Meanings, ", "))
	}
	if len(detail.OnReadings) > 0 {
		fmt.Printf("On:        %s\n", strings.Join(detail.OnReadings, " "))
	}
	if len(detail.KunReadings) > 0 {
		fmt.Printf("Kun:       %s\n", strings.Join(detail.KunReadings, " "))
	}
	if detail.Grade != nil {
		fmt.Printf("Grade:     %d\n", *detail.Grade)
	}
	if detail.ExamLevel != nil {
		fmt.Printf("Level:     N%d\n", *detail.ExamLevel)
	}
	if detail.FrequencyRank != nil {
		fmt.Printf("Frequency: #%d (%s)\n", *detail.FrequencyRank, detail.FrequencyClass)
	} else {
		fmt.Printf("Frequency: %s\n", detail.FrequencyClass)
	}
	if len(detail.Radicals) > 0 {
		fmt.Printf("Radicals:  %s\n", strings.Join(detail.Radicals, " "))
	}
	if detail.Mnemonic != "" {
		fmt.Printf("Mnemonic:  %s\n", detail.Mnemonic)
	}
	if len(detail.Examples) > 0 {
		fmt.Printf("Examples:  %s\n", strings.Join(detail.Examples, "、"))
	}

	fmt.Printf("\nSeen %dx", detail.TimesSeen)
	if detail.TimesCorrect+detail.TimesIncorrect > 0 {
		fmt.Printf(", reviewed %dx (%d correct)", detail.TimesCorrect+detail.TimesIncorrect, detail.TimesCorrect)
	}
	fmt.Printf(", mastery %d/5\n", detail.MasteryLevel)

	if len(sources) > 0 {
		fmt.Println("\nRead in:")
		for _, s := range sources {
			fmt.Printf("  [%d] %s\n", s.ID, s.Title)
		}
	}
	return nil
}
