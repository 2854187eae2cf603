// Package extractor turns uploaded files into statement text: plain text is
// read as is, PDFs through their text layer, and scans through Tesseract.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoTextLayer       = errors.New("PDF has no readable text layer")
	ErrNoText            = errors.New("no text could be extracted")
	ErrOCRUnavailable    = errors.New("OCR is not available")
)

// Methods reported in Document.Method.
const (
	MethodText       = "text"
	MethodPdftotext  = "pdftotext"
	MethodPDFContent = "pdf-content"
	MethodPDFRows    = "pdf-rows"
	MethodOCR        = "ocr"
)

// Document is the text extracted from one file.
type Document struct {
	Pages  []string
	Method string
	// Confidence is the mean OCR word confidence; zero unless Method is
	// MethodOCR.
	Confidence float64
}

// Text joins the pages with a blank line.
func (d Document) Text() string {
	return strings.Join(d.Pages, "\n\n")
}

// Source is the coarse origin of the text: "text", "pdf" or "ocr".
func (d Document) Source() string {
	switch d.Method {
	case MethodText, MethodOCR:
		return d.Method
	}
	return "pdf"
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true, ".bmp": true}

// SupportedExtension reports whether Load accepts files named like name.
func SupportedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".txt" || ext == ".pdf" || imageExts[ext]
}

// Loader picks an extraction method by file extension. A nil OCR disables
// the scanned-document path.
type Loader struct {
	PDF PDFSource
	OCR *TesseractOCR
}

// Load extracts the text of the file at path.
func (l Loader) Load(ctx context.Context, path string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return Document{}, fmt.Errorf("read %s: %w", path, err)
		}
		return Document{Pages: []string{string(data)}, Method: MethodText}, nil

	case ext == ".pdf":
		pages, method, err := l.PDF.Pages(ctx, path)
		if err == nil {
			return Document{Pages: pages, Method: method}, nil
		}
		if !errors.Is(err, ErrNoTextLayer) || l.OCR == nil {
			return Document{}, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
		}
		results, err := l.OCR.RecognizePDF(ctx, path)
		if err != nil {
			return Document{}, fmt.Errorf("OCR %s: %w", filepath.Base(path), err)
		}
		return ocrDocument(results), nil

	case imageExts[ext]:
		if l.OCR == nil {
			return Document{}, fmt.Errorf("%w: cannot read image %s", ErrOCRUnavailable, filepath.Base(path))
		}
		res, err := l.OCR.RecognizeImage(path)
		if err != nil {
			return Document{}, fmt.Errorf("OCR %s: %w", filepath.Base(path), err)
		}
		if strings.TrimSpace(res.Text) == "" {
			return Document{}, fmt.Errorf("%w: %s", ErrNoText, filepath.Base(path))
		}
		return ocrDocument([]OCRResult{res}), nil
	}
	return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

func ocrDocument(results []OCRResult) Document {
	doc := Document{Method: MethodOCR}
	sum := 0.0
	for _, r := range results {
		doc.Pages = append(doc.Pages, r.Text)
		sum += r.Confidence
	}
	if len(results) > 0 {
		doc.Confidence = sum / float64(len(results))
	}
	return doc
}
