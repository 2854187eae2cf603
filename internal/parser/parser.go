package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// ErrUnsupportedMode is returned by New for an unknown statement mode.
var ErrUnsupportedMode = errors.New("unsupported statement mode")

// Parser defines the interface for statement extractors.
type Parser interface {
	// Parse turns raw statement text into a structured statement. It never
	// fails; fields that cannot be found are left empty.
	Parse(text string) models.ExtractedStatement
	// Mode returns the statement family this parser handles.
	Mode() models.StatementMode
}

// Options tunes an extraction pass.
type Options struct {
	// Debug records what the parser did with each line.
	Debug bool
}

// New returns the parser for the given statement mode.
func New(mode models.StatementMode, opts Options) (Parser, error) {
	switch mode {
	case models.ModeBank, models.ModeCreditCard:
		return &statementParser{mode: mode, opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
}

type statementParser struct {
	mode models.StatementMode
	opts Options
}

func (p *statementParser) Mode() models.StatementMode { return p.mode }

func (p *statementParser) Parse(text string) models.ExtractedStatement {
	return extract(text, p.mode, p.opts)
}

// ExtractBankStatementData extracts a bank statement. The account number is
// surfaced; card fields are left empty.
func ExtractBankStatementData(text string) models.ExtractedStatement {
	return extract(text, models.ModeBank, Options{})
}

// ExtractCreditCardStatementData extracts a credit-card statement. Card number
// and expiry are surfaced; the account number is left empty.
func ExtractCreditCardStatementData(text string) models.ExtractedStatement {
	return extract(text, models.ModeCreditCard, Options{})
}

func extract(text string, mode models.StatementMode, opts Options) models.ExtractedStatement {
	fields := ExtractFields(text)
	if mode == models.ModeCreditCard {
		fields.AccountNumber = ""
	} else {
		fields.CardNumber = ""
		fields.ExpiryDate = ""
	}

	txns, debug := ParseTransactions(text, ParseOptions{
		Mode:        mode,
		ContextYear: StatementYear(text),
		Trace:       opts.Debug,
	})

	return models.ExtractedStatement{
		ExtractedFields: fields,
		Transactions:    txns,
		Summary:         Reconcile(text, txns),
		DebugLines:      debug,
	}
}

var (
	cardCues = []string{
		"credit card", "card number", "card ending", "minimum payment", "payment due",
		"credit limit", "available credit", "new balance", "valid thru", "expiry",
	}
	bankCues = []string{
		"account number", "primary account", "sort code", "checking", "savings",
		"withdrawals", "deposits", "paid out", "paid in", "routing",
	}
)

// AutoDetect guesses the statement family from its content. Statements with
// more card cues than bank cues are credit-card statements; everything else
// is treated as a bank statement.
func AutoDetect(text string) models.StatementMode {
	lower := strings.ToLower(text)
	card, bank := 0, 0
	for _, cue := range cardCues {
		if strings.Contains(lower, cue) {
			card++
		}
	}
	for _, cue := range bankCues {
		if strings.Contains(lower, cue) {
			bank++
		}
	}
	if card > bank {
		return models.ModeCreditCard
	}
	return models.ModeBank
}
