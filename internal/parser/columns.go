package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ColumnLayout holds the right edge, in characters, of each numeric column of
// a transaction table. Amount columns are right-aligned, so a token belongs
// to the column whose edge is nearest its own right edge. Zero means the
// column is absent.
type ColumnLayout struct {
	Debit   int
	Credit  int
	Amount  int
	Balance int
	Source  string // "header" or "static"
}

// DefaultColumnLayout is used when the header's sub-labels cannot be located.
var DefaultColumnLayout = ColumnLayout{Debit: 64, Credit: 80, Balance: 96, Source: "static"}

// balanceGuard is how far, from the last value column towards the balance
// edge, the right-most token must end before it is accepted as the running
// balance.
const balanceGuard = 0.8

var (
	debitLabel   = regexp.MustCompile(`(?i)\b(?:paid\s+out|money\s+out|withdrawals?|debits?|out)\b`)
	creditLabel  = regexp.MustCompile(`(?i)\b(?:paid\s+in|money\s+in|deposits?|credits?|in)\b`)
	amountLabel  = regexp.MustCompile(`(?i)\bamount\b`)
	balanceLabel = regexp.MustCompile(`(?i)\bbalance\b`)
)

// InferColumnLayout reads column edges from the offsets of a header line's
// sub-labels, falling back to DefaultColumnLayout.
func InferColumnLayout(header string) ColumnLayout {
	l := ColumnLayout{
		Debit:   labelEnd(header, debitLabel),
		Credit:  labelEnd(header, creditLabel),
		Amount:  labelEnd(header, amountLabel),
		Balance: labelEnd(header, balanceLabel),
		Source:  "header",
	}
	if l.Debit > 0 || l.Credit > 0 {
		// "Amount" above split debit/credit columns is a group caption.
		l.Amount = 0
	}
	if l.Debit == 0 && l.Credit == 0 && l.Amount == 0 {
		return DefaultColumnLayout
	}
	return l
}

func labelEnd(line string, label *regexp.Regexp) int {
	loc := label.FindStringIndex(line)
	if loc == nil {
		return 0
	}
	return runeOffset(line, loc[1])
}

type columnKind int

const (
	columnDebit columnKind = iota
	columnCredit
	columnAmount
	columnBalance
)

type column struct {
	kind columnKind
	end  int
}

// valueColumns returns the non-balance columns ordered left to right.
func (l ColumnLayout) valueColumns() []column {
	var cols []column
	if l.Debit > 0 {
		cols = append(cols, column{columnDebit, l.Debit})
	}
	if l.Credit > 0 {
		cols = append(cols, column{columnCredit, l.Credit})
	}
	if l.Amount > 0 {
		cols = append(cols, column{columnAmount, l.Amount})
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].end < cols[j].end })
	return cols
}

// moneyToken is a monetary value found on a line, with its character span.
type moneyToken struct {
	raw      string
	value    decimal.Decimal
	start    int
	end      int
	negative bool
	marker   string // "CR" or "DR" when printed next to the value
}

var (
	fieldPattern    = regexp.MustCompile(`\S+`)
	moneyPattern    = regexp.MustCompile(`^([-+(]?)[$£€]?(\d{1,3}(?:[.,]\d{3})+[.,]\d{2}|\d+[.,]\d{2})(\)?-?)((?i:cr|dr)?)$`)
	markerPattern   = regexp.MustCompile(`^(?i:cr|dr)$`)
	currencyGapExpr = regexp.MustCompile(`([$£€])\s+(\d)`)
)

// moneyTokens returns the monetary tokens of a line in left-to-right order.
// Only values with a two-digit fraction count; bare integers are reference
// numbers more often than amounts.
func moneyTokens(line string) []moneyToken {
	line = currencyGapExpr.ReplaceAllString(line, "$1$2")
	var out []moneyToken
	for _, loc := range fieldPattern.FindAllStringIndex(line, -1) {
		field := line[loc[0]:loc[1]]
		if markerPattern.MatchString(field) && len(out) > 0 && out[len(out)-1].marker == "" {
			out[len(out)-1].marker = strings.ToUpper(field)
			continue
		}
		m := moneyPattern.FindStringSubmatch(field)
		if m == nil {
			continue
		}
		out = append(out, moneyToken{
			raw:      field,
			value:    NormalizeAmountFixed(m[2]),
			start:    runeOffset(line, loc[0]),
			end:      runeOffset(line, loc[1]),
			negative: m[1] == "-" || m[1] == "(" || strings.Contains(m[3], "-") || strings.Contains(m[3], ")"),
			marker:   strings.ToUpper(m[4]),
		})
	}
	return out
}

// columnSlots is the outcome of classifying a row's tokens.
type columnSlots struct {
	debit, credit, amount, balance *moneyToken
}

// classifyByPosition assigns tokens to columns by the midpoints between
// column edges. It fails when a token lies outside the amount region, when
// two tokens land in one column, or when several tokens are present but the
// right-most does not reach the balance column.
func classifyByPosition(tokens []moneyToken, l ColumnLayout) (columnSlots, bool) {
	var slots columnSlots
	cols := l.valueColumns()
	if len(tokens) == 0 || len(cols) == 0 {
		return slots, len(tokens) == 0
	}

	rest := tokens
	if l.Balance > 0 {
		last := tokens[len(tokens)-1]
		if float64(last.end) >= l.balanceThreshold(cols) {
			slots.balance = &tokens[len(tokens)-1]
			rest = tokens[:len(tokens)-1]
		} else if len(tokens) > 1 {
			return slots, false
		}
	}

	regionStart := cols[0].end / 2
	for i := range rest {
		t := &rest[i]
		if t.end < regionStart {
			return slots, false
		}
		var slot **moneyToken
		switch nearestColumn(cols, t.end) {
		case columnDebit:
			slot = &slots.debit
		case columnCredit:
			slot = &slots.credit
		default:
			slot = &slots.amount
		}
		if *slot != nil {
			return slots, false
		}
		*slot = t
	}
	return slots, true
}

// balanceThreshold is the offset a token must reach to count as the balance.
func (l ColumnLayout) balanceThreshold(cols []column) float64 {
	from := 0
	if edge := cols[len(cols)-1].end; edge < l.Balance {
		from = edge
	}
	return float64(from) + balanceGuard*float64(l.Balance-from)
}

// nearestColumn picks the column whose midpoint-bounded band contains pos.
func nearestColumn(cols []column, pos int) columnKind {
	for i := 0; i < len(cols)-1; i++ {
		mid := (cols[i].end + cols[i+1].end) / 2
		if pos <= mid {
			return cols[i].kind
		}
	}
	return cols[len(cols)-1].kind
}

// classifyByOrder is the fallback for compact or misaligned rows: the last
// token is the balance and the one before it the amount.
func classifyByOrder(tokens []moneyToken) columnSlots {
	var slots columnSlots
	switch n := len(tokens); {
	case n == 1:
		slots.amount = &tokens[0]
	case n >= 2:
		slots.balance = &tokens[n-1]
		slots.amount = &tokens[n-2]
	}
	return slots
}
