package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ocrSemicolonDecimal = regexp.MustCompile(`(\d);(\s*)(\d)`)
	ocrTrailingColon    = regexp.MustCompile(`(\d):(\s|$)`)
	ocrTrailingNA       = regexp.MustCompile(`\s+NA\b`)
)

// ocrColonDecimal reads a colon as the decimal point only after three or
// more integer digits, so clock times such as 14:35 survive.
var ocrColonDecimal = regexp.MustCompile(`(^|[^\d:.,])(\d{3}|\d{1,3}(?:[.,]\d{3})+):(\d{2})([^\d:]|$)`)

// sanitizeOCRAmounts fixes common OCR errors in amount strings.
// Tesseract often misreads periods as semicolons or colons in numbers.
// E.g., "19,720; 15:" → "19,720.15".
func sanitizeOCRAmounts(line string) string {
	line = ocrSemicolonDecimal.ReplaceAllString(line, "$1.$3")
	line = ocrColonDecimal.ReplaceAllString(line, "$1$2.$3$4")
	line = ocrTrailingColon.ReplaceAllString(line, "$1$2")
	// Strip "NA" that OCR appends after amounts
	return ocrTrailingNA.ReplaceAllString(line, "")
}

// cleanLine removes extraction artifacts while keeping leading whitespace,
// which carries column position.
func cleanLine(line string) string {
	line = strings.ReplaceAll(line, "\u200b", "")
	line = strings.ReplaceAll(line, "\u00a0", " ")
	line = strings.ReplaceAll(line, "\r", "")
	line = expandTabs(line, 8)
	return strings.TrimRight(sanitizeOCRAmounts(line), " ")
}

// expandTabs replaces tabs with spaces up to the next tab stop so character
// offsets line up with the header.
func expandTabs(line string, width int) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := width - col%width
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// runeOffset converts a byte offset in s to a character offset.
func runeOffset(s string, byteOffset int) int {
	return utf8.RuneCountInString(s[:byteOffset])
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
