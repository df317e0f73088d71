package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kanjidex/kanjidex/pkg/analyze"
	"github.com/kanjidex/kanjidex/pkg/engine"
	"github.com/kanjidex/kanjidex/pkg/logging"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze Japanese text and classify its kanji as new or known",
	Long: `Extract every kanji from a text, resolve each against the reference
catalog, and mark the ones you have never encountered before.

Analysis is read-only: exposure counters are untouched unless --commit
is given, so the same text can be scored repeatedly. Text comes from a
file argument, stdin, a web article (--url), or an image (--image).`,
	Example: `  # Analyze a text file
  kanjidex analyze chapter1.txt

  # Analyze from stdin
  echo "今日は日本語を勉強します" | kanjidex analyze

  # Analyze a news article and record the encounters
  kanjidex analyze --url https://www3.nhk.or.jp/news/easy/article.html --commit

  # Analyze a photographed page
  kanjidex analyze --image page.jpg --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("url", "", "Fetch and analyze a web article")
	analyzeCmd.Flags().String("image", "", "OCR an image and analyze the extracted text")
	analyzeCmd.Flags().Bool("commit", false, "Record one encounter per distinct kanji after analysis")
	analyzeCmd.Flags().Float32("min-confidence", 0, "Refuse to commit OCR text below this confidence (0-1)")
	analyzeCmd.Flags().Bool("json", false, "Output the full analysis as JSON")
	analyzeCmd.MarkFlagsMutuallyExclusive("url", "image")
}

// analysisOutput is the JSON shape of one analysis: the full result plus
// its difficulty score.
type analysisOutput struct {
	*engine.TextAnalysisResult
	Score int `json:"score"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	urlFlag, _ := cmd.Flags().GetString("url")
	imageFlag, _ := cmd.Flags().GetString("image")
	commit, _ := cmd.Flags().GetBool("commit")
	minConfidence, _ := cmd.Flags().GetFloat32("min-confidence")
	jsonOut, _ := cmd.Flags().GetBool("json")

	if len(args) > 0 && (urlFlag != "" || imageFlag != "") {
		return fmt.Errorf("pass either a file argument or --url/--image, not both")
	}

	log := logging.WithComponent("analyze")
	ctx := cmd.Context()

	var text string
	switch {
	case urlFlag != "":
		art, err := fetchArticle(ctx, urlFlag)
		if err != nil {
			return err
		}
		log.Info().Str("title", art.Title).Int("chars", len(art.Text)).Msg("article extracted")
		if !jsonOut {
			fmt.Printf("Title: %s\n", art.Title)
		}
		text = art.Text
	case imageFlag != "":
		res, err := runVision(ctx, imageFlag, defaultOCRTimeout)
		if err != nil {
			return err
		}
		if commit && res.Confidence < minConfidence {
			log.Warn().
				Float32("confidence", res.Confidence).
				Float32("min", minConfidence).
				Msg("ocr confidence below threshold, encounters will not be recorded")
			commit = false
		}
		text = analyze.CleanText(res.Text)
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		text = string(data)
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	h, err := openHandles()
	if err != nil {
		return err
	}
	defer h.Close()

	result, err := h.engine.AnalyzeText(text)
	if err != nil {
		return err
	}
	score := engine.Score(result)

	if commit {
		if err := h.engine.RecordEncounters(result.UniqueCharacters()); err != nil {
			return err
		}
	}

	if jsonOut {
		return printJSON(analysisOutput{TextAnalysisResult: result, Score: score})
	}

	printAnalysis(result, score)
	if commit {
		fmt.Printf("Recorded %d encounters.\n", result.Stats.UniqueKanjiCount)
	}
	return nil
}

func printAnalysis(result *engine.TextAnalysisResult, score int) {
	s := result.Stats
	fmt.Printf("Score: %d/10\n", score)
	fmt.Printf("Characters: %d (%d kanji, %d hiragana, %d katakana)\n",
		s.TotalCharacters, s.KanjiCount, s.HiraganaCount, s.KatakanaCount)
	fmt.Printf("Unique kanji: %d, new: %d\n", s.UniqueKanjiCount, s.NewKanjiCount)

	if len(result.NewKanji) > 0 {
		fmt.Println("\nNew kanji:")
		for _, m := range result.NewKanji {
			fmt.Println(formatMatch(m))
		}
	}
	if len(result.KnownKanji) > 0 {
		fmt.Println("\nKnown kanji:")
		for _, m := range result.KnownKanji {
			fmt.Println(formatMatch(m))
		}
	}
}

// formatMatch renders one kanji as a single console line.
func formatMatch(m engine.KanjiMatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s", m.Character)

	if len(m.Meanings) == 0 {
		b.WriteString("  (not in catalog)")
	} else {
		meanings := m.Meanings
		if len(meanings) > 3 {
			meanings = meanings[:3]
		}
		fmt.Fprintf(&b, "  %s", strings.Join(meanings, ", "))
	}

	readings := append(append([]string{}, m.OnReadings...), m.KunReadings...)
	if len(readings) > 0 {
		if len(readings) > 4 {
			readings = readings[:4]
		}
		fmt.Fprintf(&b, "  [%s]", strings.Join(readings, " "))
	}

	if m.TimesSeen > 0 {
		fmt.Fprintf(&b, "  seen %dx", m.TimesSeen)
	}
	return b.String()
}
