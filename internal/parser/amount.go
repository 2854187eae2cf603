package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountStrip removes currency symbols, sign markers and spacing that can
// surround a monetary token.
var amountStrip = strings.NewReplacer(
	"£", "", "$", "", "€", "",
	" ", "", "\u00a0", "",
	"(", "", ")", "",
	"+", "", "-", "",
)

var amountChars = regexp.MustCompile(`^[\d.,]+$`)

// NormalizeAmount resolves a locale-ambiguous numeric token into a
// non-negative decimal. When both separators occur, the last one is the
// decimal point. A repeated lone separator is a thousands separator. A single
// comma is a decimal point only when exactly two digits follow it.
// Unparsable input yields zero.
func NormalizeAmount(token string) decimal.Decimal {
	s, ok := cleanAmount(token)
	if !ok {
		return decimal.Zero
	}

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		s = splitAtDecimal(s, strings.LastIndexAny(s, ".,"))
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case commas == 1:
		i := strings.IndexByte(s, ',')
		if len(s)-i-1 == 2 {
			s = splitAtDecimal(s, i)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return parseDecimal(s)
}

// NormalizeAmountFixed handles doubly-malformed OCR tokens such as
// "40,000,00" and "44.079.83": with two or more separators and a two-digit
// tail after the final one, that final separator is the decimal point.
// Everything else is resolved by NormalizeAmount.
func NormalizeAmountFixed(token string) decimal.Decimal {
	s, ok := cleanAmount(token)
	if !ok {
		return decimal.Zero
	}
	last := strings.LastIndexAny(s, ".,")
	if strings.Count(s, ",")+strings.Count(s, ".") >= 2 && len(s)-last-1 == 2 {
		return parseDecimal(splitAtDecimal(s, last))
	}
	return NormalizeAmount(s)
}

func cleanAmount(token string) (string, bool) {
	s := amountStrip.Replace(strings.TrimSpace(token))
	// Trailing punctuation is OCR noise ("1,234.56,").
	s = strings.TrimRight(s, ".,")
	s = strings.TrimLeft(s, ",")
	if s == "" || !amountChars.MatchString(s) {
		return "", false
	}
	return s, true
}

// splitAtDecimal treats s[i] as the decimal point and drops every other separator.
func splitAtDecimal(s string, i int) string {
	intPart := strings.NewReplacer(",", "", ".", "").Replace(s[:i])
	frac := s[i+1:]
	if intPart == "" {
		intPart = "0"
	}
	if frac == "" {
		return intPart
	}
	return intPart + "." + frac
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d.Abs()
}
