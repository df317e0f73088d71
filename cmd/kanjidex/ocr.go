package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanjidex/kanjidex/pkg/analyze"
	"github.com/kanjidex/kanjidex/pkg/logging"
	"github.com/kanjidex/kanjidex/pkg/ocr"
)

const defaultOCRTimeout = 120 * time.Second

var ocrCmd = &cobra.Command{
	Use:   "ocr IMAGE",
	Short: "Extract Japanese text from an image using Google Cloud Vision",
	Long: `Run Google Cloud Vision document text detection over an image and
print the extracted text. Images up to 20MB are processed synchronously.

Credentials come from ocr.credentials_file in the config, or from the
GOOGLE_APPLICATION_CREDENTIALS environment variable. Language hints
default to Japanese and can be changed with KANJIDEX_OCR_LANGS.`,
	Example: `  # Extract text from a photographed page
  kanjidex ocr page.jpg

  # Clean the text for analysis and save it
  kanjidex ocr page.jpg --clean -o page.txt

  # Include confidence and detected languages
  kanjidex ocr page.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCRCmd,
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("clean", false, "Normalize the text the way analysis would")
	ocrCmd.Flags().Bool("json", false, "Output as JSON with metadata")
	ocrCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

// ocrOutput is the JSON shape of one extraction.
type ocrOutput struct {
	Text        string    `json:"text"`
	Confidence  float32   `json:"confidence,omitempty"`
	Languages   []string  `json:"languages,omitempty"`
	ProcessedAt time.Time `json:"processedAt"`
	Duration    string    `json:"duration"`
	FileName    string    `json:"fileName"`
}

func runOCRCmd(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	clean, _ := cmd.Flags().GetBool("clean")
	jsonOut, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]
	log := logging.WithComponent("ocr")

	result, err := runVision(cmd.Context(), imagePath, time.Duration(timeoutSecs)*time.Second)
	if err != nil {
		return err
	}

	log.Info().
		Float32("confidence", result.Confidence).
		Strs("languages", result.Languages).
		Dur("duration", result.Duration).
		Int("text_length", len(result.Text)).
		Msg("ocr completed")

	text := result.Text
	if clean {
		text = analyze.CleanText(text)
	}
	if !analyze.IsJapaneseText(text) {
		log.Warn().Msg("extracted text contains no Japanese script")
	}

	var out []byte
	if jsonOut {
		out, err = json.MarshalIndent(ocrOutput{
			Text:        text,
			Confidence:  result.Confidence,
			Languages:   result.Languages,
			ProcessedAt: result.ProcessedAt,
			Duration:    result.Duration.String(),
			FileName:    imagePath,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
	} else {
		out = []byte(text)
	}
	if !strings.HasSuffix(string(out), "\n") {
		out = append(out, '\n')
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outputPath, err)
		}
		fmt.Printf("Extracted text written to %s\n", outputPath)
		return nil
	}
	_, err = os.Stdout.Write(out)
	return err
}

// runVision validates the image file, builds a Vision client from the
// configured credentials, and extracts its text.
func runVision(ctx context.Context, imagePath string, timeout time.Duration) (*ocr.Result, error) {
	info, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", imagePath)
		}
		return nil, fmt.Errorf("access image file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", imagePath)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("image file is empty: %s", imagePath)
	}
	if info.Size() > ocr.MaxImageSizeBytes {
		return nil, fmt.Errorf("image is %d bytes, the limit is %d (20MB)", info.Size(), ocr.MaxImageSizeBytes)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	service, err := ocr.NewGoogleVision(ctx, cfg.OCR.CredentialsFile, cfg.OCR.LanguageHints)
	if err != nil {
		return nil, ocrErrMessage(err)
	}
	defer service.Close()

	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	result, err := service.ProcessImage(ctx, f)
	if err != nil {
		return nil, ocrErrMessage(err)
	}
	return result, nil
}

// ocrErrMessage turns the ocr package's sentinel errors into actionable
// messages.
func ocrErrMessage(err error) error {
	switch {
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured: set ocr.credentials_file in kanjidex.yaml or export GOOGLE_APPLICATION_CREDENTIALS")
	case errors.Is(err, ocr.ErrNoText):
		return fmt.Errorf("no readable text found in the image")
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("ocr timed out, try a larger --timeout")
	default:
		return err
	}
}
