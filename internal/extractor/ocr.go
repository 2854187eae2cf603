package extractor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/logging"
)

// OCRResult is the text of one image with Tesseract's mean word confidence
// (0-100).
type OCRResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TesseractOCR recognizes scanned statements. PDFs are rasterized with
// pdftoppm (poppler-utils) first.
type TesseractOCR struct {
	Language    string
	PageSegMode int
	DPI         int
}

// NewTesseractOCR applies cfg, defaulting to English, PSM 4 and 300 DPI.
func NewTesseractOCR(cfg config.OCRConfig) *TesseractOCR {
	o := &TesseractOCR{Language: cfg.Language, PageSegMode: cfg.PageSegMode, DPI: cfg.DPI}
	if o.Language == "" {
		o.Language = "eng"
	}
	if o.PageSegMode == 0 {
		// Single column of text of variable sizes suits statements.
		o.PageSegMode = int(gosseract.PSM_SINGLE_COLUMN)
	}
	if o.DPI == 0 {
		o.DPI = 300
	}
	return o
}

// IsOCRAvailable reports whether scanned PDFs can be rasterized.
func IsOCRAvailable() bool {
	_, err := exec.LookPath("pdftoppm")
	return err == nil
}

// RecognizeImage runs Tesseract over one image file.
func (o *TesseractOCR) RecognizeImage(path string) (OCRResult, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(o.Language); err != nil {
		return OCRResult{}, fmt.Errorf("set OCR language %q: %w", o.Language, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(o.PageSegMode)); err != nil {
		return OCRResult{}, fmt.Errorf("set page segmentation mode %d: %w", o.PageSegMode, err)
	}
	// Runs of spaces carry the column layout the parser relies on.
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return OCRResult{}, fmt.Errorf("set preserve_interword_spaces: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return OCRResult{}, fmt.Errorf("load image %s: %w", path, err)
	}

	text, err := client.Text()
	if err != nil {
		return OCRResult{}, fmt.Errorf("tesseract: %w", err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return OCRResult{}, fmt.Errorf("tesseract word boxes: %w", err)
	}
	return OCRResult{Text: text, Confidence: meanConfidence(boxes)}, nil
}

// RecognizePDF rasterizes every page and recognizes each image. Pages that
// fail are logged and skipped.
func (o *TesseractOCR) RecognizePDF(ctx context.Context, path string) ([]OCRResult, error) {
	if !IsOCRAvailable() {
		return nil, fmt.Errorf("%w: pdftoppm not found (install poppler-utils)", ErrOCRUnavailable)
	}

	tmpDir, err := os.MkdirTemp("", "ocr-pages-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-r", strconv.Itoa(o.DPI), "-png", path, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return nil, fmt.Errorf("list page images: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}
	sort.Strings(images)

	var results []OCRResult
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := o.RecognizeImage(img)
		if err != nil {
			logging.L().Warn("OCR failed for page", zap.String("image", filepath.Base(img)), zap.Error(err))
			continue
		}
		if strings.TrimSpace(res.Text) != "" {
			results = append(results, res)
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: tesseract produced no text from %d page images", ErrNoText, len(images))
	}
	return results, nil
}

// meanConfidence averages word confidences, ignoring boxes without a word.
func meanConfidence(boxes []gosseract.BoundingBox) float64 {
	sum, n := 0.0, 0
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		sum += b.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
