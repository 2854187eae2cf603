package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// fieldStrategy is one candidate way of locating a metadata field. Strategies
// for a field are tried in table order and the first match wins.
type fieldStrategy struct {
	name  string
	match func(text string) (string, bool)
}

// firstMatch runs strategies in order and returns the first hit.
func firstMatch(text string, strategies []fieldStrategy) (value, strategy string) {
	for _, s := range strategies {
		if v, ok := s.match(text); ok {
			return v, s.name
		}
	}
	return "", ""
}

// ExtractFields pulls every metadata field out of the statement text.
// Fields that cannot be located are left empty.
func ExtractFields(text string) models.ExtractedFields {
	f := models.ExtractedFields{}
	f.BankName, _ = firstMatch(text, bankNameStrategies)
	f.AccountNumber, _ = firstMatch(text, accountNumberStrategies)
	f.AccountHolder, _ = firstMatch(text, accountHolderStrategies)
	f.CardNumber, _ = firstMatch(text, cardNumberStrategies)
	f.ExpiryDate, _ = firstMatch(text, expiryStrategies)
	f.StatementPeriod, _ = firstMatch(text, periodStrategies)
	return f
}

// regexStrategy returns the first capture group of pattern, post-processed by clean.
func regexStrategy(name string, pattern *regexp.Regexp, clean func(string) string) fieldStrategy {
	return fieldStrategy{name: name, match: func(text string) (string, bool) {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		v := strings.TrimSpace(m[1])
		if clean != nil {
			v = clean(v)
		}
		return v, v != ""
	}}
}

// Bank name

// knownBanks is matched as a case-insensitive whole-phrase substring before
// any generic pattern is attempted.
var knownBanks = []string{
	"Chase Bank", "JPMorgan Chase", "Bank of America", "Wells Fargo",
	"Citibank", "US Bank", "PNC Bank", "Capital One", "TD Bank",
	"Bank of New York Mellon", "State Street Corporation", "American Express",
	"Goldman Sachs", "Morgan Stanley", "Charles Schwab", "Ally Bank",
	"HSBC", "Barclays", "Deutsche Bank", "Credit Suisse",
	"Metro Bank", "Lloyds Bank", "NatWest", "Santander",
}

var knownBankPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(knownBanks))
	for i, name := range knownBanks {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	}
	return out
}()

var (
	bankHeadingPattern = regexp.MustCompile(`(?m)^[ \t]*((?:[A-Z][\w&'.]*[ \t]+)+(?:BANK|Bank))\b`)
	bankGenericPattern = regexp.MustCompile(`\b((?:[A-Z][\w&'.]*[ \t]+)+(?:BANK|Bank|CREDIT UNION|Credit Union))\b`)
)

// Leading words that introduce a bank name rather than belong to it.
var bankLeadWords = map[string]bool{"your": true, "the": true, "our": true, "dear": true, "this": true, "from": true}

var bankNameStrategies = []fieldStrategy{
	{name: "known-institution", match: func(text string) (string, bool) {
		for i, re := range knownBankPatterns {
			if re.MatchString(text) {
				return knownBanks[i], true
			}
		}
		return "", false
	}},
	regexStrategy("heading", bankHeadingPattern, cleanBankName),
	regexStrategy("generic", bankGenericPattern, cleanBankName),
}

func cleanBankName(s string) string {
	words := strings.Fields(s)
	for len(words) > 1 && bankLeadWords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	if len(words) < 2 {
		return ""
	}
	name := strings.Join(words, " ")
	if name == strings.ToUpper(name) {
		// A Caser keeps state between calls, so each call gets its own.
		name = cases.Title(language.English).String(strings.ToLower(name))
	}
	return name
}

// Account number

var (
	primaryAccountPattern = regexp.MustCompile(`(?i)primary\s+account\s*(?:number|no\.?)?\s*[:#]?\s*(\d{6,20})\b`)
	labeledAccountPattern = regexp.MustCompile(`(?i)\baccount\s*(?:number|no\.?|#)\s*[:#]?[ \t]*(\d(?:[ -]?\d){5,23})`)
	acNumberPattern       = regexp.MustCompile(`(?i)\ba/c\s*(?:number|no\.?|#)?\s*[:#]?[ \t]*(\d(?:[ -]?\d){5,23})`)
	accountColonPattern   = regexp.MustCompile(`(?i)\baccount\s*:[ \t]*(\d(?:[ -]?\d){7,23})`)
	bareAccountPattern    = regexp.MustCompile(`\b(\d{8,20})\b`)
)

func cleanAccountNumber(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// The bare-digits strategy can pick up a long reference number; it only runs
// when no labeled account number exists.
var accountNumberStrategies = []fieldStrategy{
	regexStrategy("primary-account", primaryAccountPattern, nil),
	regexStrategy("account-number-label", labeledAccountPattern, cleanAccountNumber),
	regexStrategy("a/c-label", acNumberPattern, cleanAccountNumber),
	regexStrategy("account-colon", accountColonPattern, cleanAccountNumber),
	regexStrategy("bare-digits", bareAccountPattern, nil),
}

// Account holder

const personName = `([A-Z][A-Za-z.'\-]*(?:[ ][A-Za-z.'\-]+)*)`

var (
	holderLabelPattern   = regexp.MustCompile(`(?im)\baccount\s*holder\s*:?[ \t]*` + personName)
	nameLabelPattern     = regexp.MustCompile(`(?im)(?:^|[ \t]{2,})(?:customer\s+)?name\s*:[ \t]*` + personName)
	customerLabelPattern = regexp.MustCompile(`(?im)\bcustomer\s*:[ \t]*` + personName)
	capsNamePattern      = regexp.MustCompile(`\b([A-Z]{2,}(?:[ ][A-Z]{2,})+)\b`)
)

// capsNameStopWords disqualify an all-caps run from being a person's name.
var capsNameStopWords = map[string]bool{
	"BANK": true, "CREDIT": true, "UNION": true, "STATEMENT": true, "ACCOUNT": true,
	"BALANCE": true, "DATE": true, "DESCRIPTION": true, "AMOUNT": true, "TOTAL": true,
	"SUMMARY": true, "PAGE": true, "CARD": true, "PAYMENT": true, "PAYMENTS": true,
	"DEPOSIT": true, "DEPOSITS": true, "WITHDRAWAL": true, "WITHDRAWALS": true,
	"TRANSACTION": true, "TRANSACTIONS": true, "DETAILS": true, "OPENING": true,
	"CLOSING": true, "ATM": true, "POS": true, "FEE": true, "FEES": true, "INTEREST": true,
	"VISA": true, "MASTERCARD": true, "DEBIT": true, "PERIOD": true, "NUMBER": true,
	"PRIMARY": true, "CHECKING": true, "SAVINGS": true, "ONLINE": true, "TRANSFER": true,
	"PURCHASE": true, "DUE": true, "MINIMUM": true, "NEW": true, "PREVIOUS": true,
}

func matchCapsName(text string) (string, bool) {
	for _, m := range capsNamePattern.FindAllStringSubmatch(text, -1) {
		if isPersonName(m[1]) {
			return m[1], true
		}
	}
	return "", false
}

func isPersonName(candidate string) bool {
	for _, w := range strings.Fields(candidate) {
		if capsNameStopWords[w] {
			return false
		}
	}
	for _, bank := range knownBanks {
		if strings.Contains(candidate, strings.ToUpper(bank)) {
			return false
		}
	}
	return true
}

var accountHolderStrategies = []fieldStrategy{
	regexStrategy("account-holder-label", holderLabelPattern, nil),
	regexStrategy("name-label", nameLabelPattern, nil),
	regexStrategy("customer-label", customerLabelPattern, nil),
	{name: "all-caps-name", match: matchCapsName},
}

// Card number

var (
	labeledCardPattern = regexp.MustCompile(`(?i)card\s*(?:number|no\.?|#)\s*[:#]?[ \t]*([\dXx*•](?:[\dXx*•]|[ -][\dXx*•]){12,22})`)
	maskedCardPattern  = regexp.MustCompile(`(?:^|\s)((?:[Xx*•]{4}[ -]?){3}\d{4})\b`)
	bareCardPattern    = regexp.MustCompile(`\b(\d(?:[ -]?\d){12,15})\b`)
	cardSeparators     = strings.NewReplacer(" ", "", "-", "")
)

func cleanCardNumber(s string) string {
	s = cardSeparators.Replace(s)
	if n := len([]rune(s)); n < 13 || n > 19 {
		return ""
	}
	return s
}

var cardNumberStrategies = []fieldStrategy{
	regexStrategy("card-number-label", labeledCardPattern, cleanCardNumber),
	regexStrategy("masked", maskedCardPattern, nil),
	regexStrategy("bare-digits", bareCardPattern, cleanCardNumber),
}

// Expiry

var (
	labeledExpiryPattern = regexp.MustCompile(`(?i)(?:exp(?:iry|iration)?(?:\s*date)?|valid\s*thru|good\s*thru)\s*[:.]?\s*((?:0[1-9]|1[0-2])\s*/\s*(?:\d{4}|\d{2}))\b`)
	// Bare expiries never lead a line, where card statements print
	// MM/DD transaction dates.
	bareExpiryPattern = regexp.MustCompile(`(?m)^[^\n]*?\S[^\n]*?[ \t]((?:0[1-9]|1[0-2])/(?:\d{4}|\d{2}))(?:$|[^\d/.])`)
)

var expiryStrategies = []fieldStrategy{
	regexStrategy("expiry-label", labeledExpiryPattern, func(s string) string {
		return strings.ReplaceAll(s, " ", "")
	}),
	regexStrategy("bare-mm/yy", bareExpiryPattern, nil),
}

// Statement period

var (
	periodRangePattern = regexp.MustCompile(`(?i)\b(` + dateExpr + `)\s*(?:through|thru|to|until|-|–)\s*(` + dateExpr + `)`)
	balanceAsOfPattern = regexp.MustCompile(`(?i)balance\s+as\s+of\s+(` + dateExpr + `)`)
	fourDigitYear      = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

var periodStrategies = []fieldStrategy{
	{name: "date-range", match: matchPeriodRange},
	{name: "balance-as-of", match: matchBalanceAnchors},
}

func matchPeriodRange(text string) (string, bool) {
	for _, m := range periodRangePattern.FindAllStringSubmatch(text, -1) {
		// Yearless starts ("Apr 1 to Apr 30, 2018") borrow the range's year.
		year := fourDigitYear.FindString(m[0])
		if p, ok := formatPeriod(m[1], m[2], year); ok {
			return p, true
		}
	}
	return "", false
}

func matchBalanceAnchors(text string) (string, bool) {
	anchors := balanceAsOfPattern.FindAllStringSubmatch(text, 2)
	switch len(anchors) {
	case 0:
		return "", false
	case 1:
		return formatPeriod(anchors[0][1], "", fourDigitYear.FindString(anchors[0][1]))
	}
	return formatPeriod(anchors[0][1], anchors[1][1], fourDigitYear.FindString(anchors[0][0]+" "+anchors[1][0]))
}

// formatPeriod renders "start - end" in ISO form. When only one side parses it
// is returned alone as a single-date period.
func formatPeriod(start, end, year string) (string, bool) {
	s, okStart := ParseDate(start, year)
	e, okEnd := ParseDate(end, year)
	switch {
	case okStart && okEnd:
		if s.After(e) {
			s, e = e, s
		}
		return s.Format(isoDate) + " - " + e.Format(isoDate), true
	case okStart:
		return s.Format(isoDate), true
	case okEnd:
		return e.Format(isoDate), true
	}
	return "", false
}

// StatementYear returns the year transactions without a printed year belong
// to: the start year of the statement period, or else the year of the first
// fully dated token in the text. It returns "" when neither exists.
func StatementYear(text string) string {
	if period, _ := firstMatch(text, periodStrategies); len(period) >= 4 {
		return period[:4]
	}
	for _, m := range datedTokenPattern.FindAllString(text, -1) {
		if !fourDigitYear.MatchString(m) {
			continue
		}
		if t, ok := ParseDate(m, ""); ok {
			return t.Format("2006")
		}
	}
	return ""
}

var datedTokenPattern = regexp.MustCompile(`(?i)\b` + dateExpr)
