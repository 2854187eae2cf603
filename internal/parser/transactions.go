package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// ParseOptions controls one transaction parsing pass.
type ParseOptions struct {
	Mode        models.StatementMode
	ContextYear string // year for dates printed without one
	Trace       bool   // record a DebugLine per input line
}

type parseState int

const (
	awaitingTransaction parseState = iota
	bufferingContinuation
)

// maxContinuationLines bounds how many description-only lines may be appended
// to one transaction.
const maxContinuationLines = 3

var (
	tableMarkerPattern = regexp.MustCompile(`(?i)\b(?:your\s+)?transaction\s+details\b|\baccount\s+activity\b`)
	skipLinePattern    = regexp.MustCompile(`(?i)\b(?:brought|carried)\s+forward\b|^page\s+\d+(?:\s+of\s+\d+)?$|continued\s+on\s+(?:next|the\s+next)\s+page|^-{3,}$|^={3,}$`)
	footerPattern      = regexp.MustCompile(`(?i)\bsignature\b|thank\s+you\s+for\s+banking|member\s+fdic`)
	tableSummaryLine   = regexp.MustCompile(`(?i)^\s*(?:sub)?total\b|\b(?:opening|closing|ending|beginning|starting)\s+balance\b|^\s*(?:previous|new)\s+balance\b`)
)

// isTransactionHeader reports whether line is a Date/Description/Amount/Balance-shaped
// column header.
func isTransactionHeader(line string) bool {
	if d, _ := splitLeadingDate(line); d != "" || len(moneyTokens(line)) > 0 {
		return false
	}
	l := strings.ToLower(line)
	return strings.Contains(l, "date") &&
		containsAny(l, []string{"description", "transaction", "details", "particulars", "payee", "merchant"}) &&
		containsAny(l, []string{"amount", "paid", "balance", "money", "withdrawal", "deposit", "debit", "credit"})
}

// isFooter reports whether line is signature or footer text. A line that
// carries a date or an amount is a ledger row even when a merchant name
// contains one of the phrases.
func isFooter(line string) bool {
	if !footerPattern.MatchString(line) {
		return false
	}
	d, _ := splitLeadingDate(line)
	return d == "" && len(moneyTokens(line)) == 0
}

// pendingRow is a transaction being assembled, possibly across lines.
type pendingRow struct {
	lineNum int
	text    string
	date    string
	desc    []string
	tokens  []moneyToken
	merged  bool
}

func (r *pendingRow) debugLine() models.DebugLine {
	return models.DebugLine{LineNum: r.lineNum, Text: r.text, HasDate: r.date != ""}
}

// resolvedRow is a pendingRow with its columns classified.
type resolvedRow struct {
	description string
	amount      decimal.Decimal
	hasAmount   bool
	direction   models.Direction
	balance     *decimal.Decimal
	method      string
}

func (r resolvedRow) complete() bool {
	return r.description != "" && r.hasAmount && r.balance != nil
}

func (r resolvedRow) emittable() bool {
	return r.description != "" && r.hasAmount
}

func (r resolvedRow) transaction(date string) models.Transaction {
	return models.Transaction{
		Date:        date,
		Description: r.description,
		Amount:      r.amount,
		Direction:   r.direction,
		Balance:     r.balance,
	}
}

// transactionParser is the two-state machine that walks the table region.
type transactionParser struct {
	opts   ParseOptions
	layout ColumnLayout
	dates  DateNormalizer

	state       parseState
	pending     *pendingRow
	currentDate string

	txns          []models.Transaction
	continuations int // description lines appended to the last emitted transaction
	debug         []models.DebugLine
}

// ParseTransactions segments the transaction table of text into ledger
// entries. Without a recognisable table header it returns no transactions.
func ParseTransactions(text string, opts ParseOptions) ([]models.Transaction, []models.DebugLine) {
	p := &transactionParser{
		opts:   opts,
		layout: DefaultColumnLayout,
		dates:  DateNormalizer{Now: time.Now, MonthFirst: opts.Mode == models.ModeCreditCard},
	}
	inTable := false

	for i, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		dl := models.DebugLine{LineNum: i + 1, Text: truncate(trimmed, 120)}

		switch {
		case isTransactionHeader(trimmed):
			p.flush()
			inTable = true
			p.layout = InferColumnLayout(line)
			p.record(dl, "header", p.layout.Source+"-layout")
			continue
		case tableMarkerPattern.MatchString(trimmed):
			p.flush()
			inTable = true
			p.layout = DefaultColumnLayout
			p.record(dl, "header", "table-marker")
			continue
		case !inTable:
			p.record(dl, "skipped", "pre-section")
			continue
		case tableSummaryLine.MatchString(trimmed):
			p.flush()
			p.continuations = maxContinuationLines
			p.record(dl, "skipped", "summary")
			continue
		case skipLinePattern.MatchString(trimmed), isFooter(trimmed):
			p.record(dl, "skipped", "boilerplate")
			continue
		}

		p.handleLine(i+1, line, dl)
	}

	p.flush()
	if p.txns == nil {
		p.txns = []models.Transaction{}
	}
	return p.txns, p.debug
}

func (p *transactionParser) handleLine(lineNum int, line string, dl models.DebugLine) {
	dateToken, rest := splitLeadingDate(line)
	tokens := moneyTokens(line)
	desc := descriptionText(rest, dateToken != "")
	dl.HasDate = dateToken != ""

	switch {
	case dateToken != "":
		p.flush()
		p.currentDate = p.dates.Normalize(dateToken, p.opts.ContextYear)
		p.start(lineNum, desc, tokens, dl)

	case len(tokens) > 0 && p.state == bufferingContinuation:
		// A row that already has its amount does not take another one from
		// the next line; that line is the next same-day transaction.
		if p.resolve(p.pending).hasAmount && p.resolve(&pendingRow{tokens: tokens}).hasAmount {
			p.flush()
			p.start(lineNum, desc, tokens, dl)
			return
		}
		// The single line of lookahead: whatever it supplies, the row is
		// decided here.
		p.pending.desc = appendFragment(p.pending.desc, desc)
		p.pending.tokens = append(p.pending.tokens, tokens...)
		p.pending.merged = true
		p.record(dl, "continuation", "lookahead")
		p.flush()

	case len(tokens) > 0:
		if p.currentDate == "" {
			p.record(dl, "skipped", "no-date-context")
			return
		}
		// Same-day row: the date is printed once per day.
		p.start(lineNum, desc, tokens, dl)

	case p.state == bufferingContinuation:
		// Description-only lookahead is still the one line the row gets.
		p.pending.desc = appendFragment(p.pending.desc, desc)
		p.pending.merged = true
		p.record(dl, "continuation", "lookahead")
		p.flush()

	default:
		p.appendToLast(desc, dl)
	}
}

// start opens a row. Complete rows are emitted at once; anything else waits
// for one line of lookahead.
func (p *transactionParser) start(lineNum int, desc string, tokens []moneyToken, dl models.DebugLine) {
	p.pending = &pendingRow{
		lineNum: lineNum,
		text:    dl.Text,
		date:    p.currentDate,
		desc:    appendFragment(nil, desc),
		tokens:  tokens,
	}
	if r := p.resolve(p.pending); r.complete() {
		p.emit(r)
		return
	}
	p.state = bufferingContinuation
	p.record(dl, "buffered", "")
}

// flush decides the pending row, if any, and returns to awaiting. A row with
// a description and an amount is emitted even when no balance turned up.
func (p *transactionParser) flush() {
	if p.pending == nil {
		p.state = awaitingTransaction
		return
	}
	if r := p.resolve(p.pending); r.emittable() {
		p.emit(r)
		return
	}
	p.record(p.pending.debugLine(), "skipped", "dropped-incomplete-row")
	p.pending = nil
	p.state = awaitingTransaction
}

// emit materializes the pending row.
func (p *transactionParser) emit(r resolvedRow) {
	p.txns = append(p.txns, r.transaction(p.pending.date))
	p.record(p.pending.debugLine(), "parsed", r.method)
	p.pending = nil
	p.state = awaitingTransaction
	p.continuations = 0
}

func (p *transactionParser) appendToLast(desc string, dl models.DebugLine) {
	if len(p.txns) == 0 || desc == "" || p.continuations >= maxContinuationLines {
		p.record(dl, "skipped", "orphan-text")
		return
	}
	last := &p.txns[len(p.txns)-1]
	last.Description = collapseSpaces(last.Description + " " + desc)
	p.continuations++
	p.record(dl, "continuation", "previous-transaction")
}

// resolve classifies a row's tokens: by column position when the layout
// fits, by order otherwise.
func (p *transactionParser) resolve(row *pendingRow) resolvedRow {
	r := resolvedRow{description: collapseSpaces(strings.Join(row.desc, " "))}
	if len(row.tokens) == 0 {
		return r
	}

	slots, ok := classifyByPosition(row.tokens, p.layout)
	// A lone figure past the balance edge of a described row is its amount;
	// the rows are wider than the header.
	if ok && !row.merged && r.description != "" && len(row.tokens) == 1 && slots.balance != nil {
		ok = false
	}
	r.method = "positional"
	if !ok {
		slots = classifyByOrder(row.tokens)
		r.method = "ordinal"
	}
	if row.merged {
		r.method += "+lookahead"
	}

	switch {
	case slots.debit != nil:
		r.amount, r.hasAmount, r.direction = slots.debit.value, true, models.Debit
	case slots.credit != nil:
		r.amount, r.hasAmount, r.direction = slots.credit.value, true, models.Credit
	case slots.amount != nil:
		r.amount, r.hasAmount = slots.amount.value, true
		r.direction = directionFor(*slots.amount, r.description, p.opts.Mode)
	}
	if slots.balance != nil {
		b := slots.balance.value
		r.balance = &b
	}
	return r
}

func (p *transactionParser) record(dl models.DebugLine, result, method string) {
	if !p.opts.Trace {
		return
	}
	dl.Result = result
	dl.Method = method
	p.debug = append(p.debug, dl)
}

var leadingPostingDate = regexp.MustCompile(`(?i)^\s*(?:` + dateExpr + `)(?:\s|$)`)

// descriptionText is the line with its monetary tokens and sign markers
// removed. Card statements print a posting date after the transaction date;
// it is dropped too.
func descriptionText(rest string, dated bool) string {
	if dated {
		rest = leadingPostingDate.ReplaceAllString(rest, " ")
	}
	var kept []string
	afterMoney := false
	for _, f := range strings.Fields(currencyGapExpr.ReplaceAllString(rest, "$1$2")) {
		switch {
		case moneyPattern.MatchString(f):
			afterMoney = true
			continue
		case afterMoney && markerPattern.MatchString(f):
			continue
		}
		afterMoney = false
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func appendFragment(frags []string, s string) []string {
	if s == "" {
		return frags
	}
	return append(frags, s)
}
