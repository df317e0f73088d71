package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review CHARACTER",
	Short: "Record a review answer for one kanji",
	Long: `Record whether you recognized a kanji during review. Answers feed the
mastery rating but never count as encounters: only reading does that.`,
	Example: `  kanjidex review 水 --correct
  kanjidex review 鬱 --wrong`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().Bool("correct", false, "The answer was correct")
	reviewCmd.Flags().Bool("wrong", false, "The answer was wrong")
	reviewCmd.MarkFlagsOneRequired("correct", "wrong")
	reviewCmd.MarkFlagsMutuallyExclusive("correct", "wrong")
}

func runReview(cmd *cobra.Command, args []string) error {
	correct, _ := cmd.Flags().GetBool("correct")

	ch := args[0]
	if utf8.RuneCountInString(ch) != 1 {
		return fmt.Errorf("pass exactly one character, got %q", ch)
	}

	h, err := openHandles()
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.engine.RecordAnswer(ch, correct); err != nil {
		return err
	}

	exp, err := h.engine.GetExposure(ch)
	if err != nil {
		return err
	}
	attempts := exp.TimesCorrect + exp.TimesIncorrect
	fmt.Printf("%s: %d/%d correct, mastery %d/5\n", ch, exp.TimesCorrect, attempts, exp.MasteryLevel())
	return nil
}
