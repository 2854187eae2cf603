package extractor

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// PDFSource reads the text layer of a PDF. The transaction parser classifies
// amounts by character column, so methods that keep the printed layout are
// tried first: pdftotext -layout, then the PDF library's coordinate-based
// reconstruction, then its row grouping.
type PDFSource struct {
	// DisablePdftotext skips the external poppler tool even when installed.
	DisablePdftotext bool
}

// Pages returns the text of each page and the method that produced it.
// ErrNoTextLayer means no method produced readable statement text; the PDF
// is probably scanned.
func (s PDFSource) Pages(ctx context.Context, path string) ([]string, string, error) {
	if !s.DisablePdftotext {
		if pages, err := extractWithPdftotext(ctx, path); err == nil && isReadableText(pages) {
			return pages, MethodPdftotext, nil
		}
	}

	pages, method, err := extractWithLibrary(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoTextLayer, err)
	}
	if !isReadableText(pages) {
		return nil, "", ErrNoTextLayer
	}
	return pages, method, nil
}

// textQuality returns the share of characters that are plain ASCII letters,
// digits, whitespace or statement punctuation.
// unicode.IsLetter is too broad: identity-encoded fonts decode to accented
// garbage.
func textQuality(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) ||
				unicode.IsSpace(r) || strings.ContainsRune(".,-/:;()'\"£$€%&@#!?+=*", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// statementWords appear in virtually every bank or card statement.
var statementWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction", "card",
	"deposit", "withdrawal", "opening", "closing", "transfer",
	"number", "page", "period",
}

func containsStatementWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText requires more than 50 characters, more than 60% of them
// readable, and at least one statement word.
func isReadableText(pages []string) bool {
	return totalTextLen(pages) > 50 && textQuality(pages) > 0.6 && containsStatementWords(pages)
}

// extractWithPdftotext runs poppler's pdftotext page by page so page
// boundaries survive.
func extractWithPdftotext(ctx context.Context, path string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := pdfPageCount(ctx, path)
	if numPages == 0 {
		numPages = 1
	}
	var pages []string
	for i := 1; i <= numPages; i++ {
		n := strconv.Itoa(i)
		out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-f", n, "-l", n, path, "-").Output()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if text := strings.TrimRight(string(out), " \n\f"); strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// pdfPageCount returns the page count reported by pdfinfo, or 0 when it is
// unavailable.
func pdfPageCount(ctx context.Context, path string) int {
	out, err := exec.CommandContext(ctx, "pdfinfo", path).Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		if rest, ok := strings.CutPrefix(line, "Pages:"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil {
				return n
			}
		}
	}
	return 0
}

// extractWithLibrary uses ledongthuc/pdf. The library panics on some
// malformed files.
func extractWithLibrary(path string) (pages []string, method string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, "", fmt.Errorf("PDF has no pages")
	}

	if pages = extractByContent(r, numPages); isReadableText(pages) {
		return pages, MethodPDFContent, nil
	}
	return extractByRow(r, numPages), MethodPDFRows, nil
}

// extractByRow joins each row's words with single spaces. Column offsets
// are lost, so amounts fall back to order-based classification.
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// charWidth is the assumed width, in points, of one monospaced column when
// mapping X coordinates back to character offsets.
const charWidth = 5.0

// extractByContent groups text pieces by Y coordinate and places each piece
// at the character column its X coordinate maps to, so right-aligned amount
// columns stay aligned with the header.
func extractByContent(r *pdf.Reader, numPages int) []string {
	type textItem struct {
		x float64
		s string
	}
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rowMap[y] = append(rowMap[y], textItem{x: t.X, s: t.S})
		}

		// PDF Y runs bottom to top.
		ys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			ys = append(ys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		var lines []string
		for _, y := range ys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })

			var b strings.Builder
			col := 0
			for _, item := range items {
				target := int(item.x / charWidth)
				if pad := target - col; pad > 0 {
					b.WriteString(strings.Repeat(" ", pad))
					col += pad
				}
				b.WriteString(item.s)
				col += len([]rune(item.s))
			}
			if line := strings.TrimRight(b.String(), " "); strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
