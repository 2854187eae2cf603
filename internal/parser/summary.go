package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Label patterns for statement-declared figures, anchored at the start of a
// line. Balance rows may sit inside the ledger behind a date.
const datedLine = `(?i)^\s*(?:` + dateExpr + `\s+)?`

var (
	openingLabels = []*regexp.Regexp{
		regexp.MustCompile(datedLine + `(?:opening|beginning|starting|previous)\s+balance\b`),
		regexp.MustCompile(datedLine + `balance\s+brought\s+forward\b`),
	}
	closingLabels = []*regexp.Regexp{
		regexp.MustCompile(datedLine + `(?:closing|ending|new)\s+balance\b`),
		regexp.MustCompile(datedLine + `balance\s+carried\s+forward\b`),
	}
	debitTotalLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(?:total\s+)?(?:withdrawals|debits)\b`),
		regexp.MustCompile(`(?i)^\s*total\s+(?:money|paid)\s+out\b`),
	}
	creditTotalLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(?:total\s+)?(?:deposits|credits)\b`),
		regexp.MustCompile(`(?i)^\s*total\s+(?:money|paid)\s+in\b`),
	}
)

// Reconcile builds the balance summary. Figures printed on the statement take
// precedence; anything missing is derived from the transactions.
func Reconcile(text string, txns []models.Transaction) models.StatementSummary {
	lines := strings.Split(text, "\n")
	derived := deriveSummary(txns)

	s := models.StatementSummary{}
	s.OpeningBalance = explicitOr(lines, openingLabels, derived.OpeningBalance)
	s.ClosingBalance = explicitOr(lines, closingLabels, derived.ClosingBalance)
	s.TotalDebits = explicitOr(lines, debitTotalLabels, derived.TotalDebits)
	s.TotalCredits = explicitOr(lines, creditTotalLabels, derived.TotalCredits)
	return s
}

func explicitOr(lines []string, labels []*regexp.Regexp, fallback decimal.Decimal) decimal.Decimal {
	if v, ok := labeledAmount(lines, labels); ok {
		return v
	}
	return fallback
}

// labeledAmount finds the first line starting with one of labels and returns
// the last amount after the label. A label that ends its line takes the
// first amount of the following line.
func labeledAmount(lines []string, labels []*regexp.Regexp) (decimal.Decimal, bool) {
	for i, raw := range lines {
		line := cleanLine(raw)
		for _, label := range labels {
			loc := label.FindStringIndex(line)
			if loc == nil {
				continue
			}
			if tokens := moneyTokens(line[loc[1]:]); len(tokens) > 0 {
				return tokens[len(tokens)-1].value, true
			}
			if strings.Trim(line[loc[1]:], " :$£€") == "" && i+1 < len(lines) {
				if tokens := moneyTokens(cleanLine(lines[i+1])); len(tokens) > 0 {
					return tokens[0].value, true
				}
			}
		}
	}
	return decimal.Zero, false
}

// deriveSummary computes every figure from the ledger alone.
func deriveSummary(txns []models.Transaction) models.StatementSummary {
	s := models.StatementSummary{}
	for _, t := range txns {
		if t.Direction == models.Credit {
			s.TotalCredits = s.TotalCredits.Add(t.Amount)
		} else {
			s.TotalDebits = s.TotalDebits.Add(t.Amount)
		}
	}

	// Opening balance: undo every transaction up to and including the first
	// one that carries a balance.
	net := decimal.Zero
	for _, t := range txns {
		net = net.Add(signed(t))
		if t.Balance != nil {
			s.OpeningBalance = t.Balance.Sub(net)
			break
		}
	}

	for i := len(txns) - 1; i >= 0; i-- {
		if txns[i].Balance != nil {
			s.ClosingBalance = *txns[i].Balance
			break
		}
	}
	return s
}

func signed(t models.Transaction) decimal.Decimal {
	if t.Direction == models.Credit {
		return t.Amount
	}
	return t.Amount.Neg()
}
