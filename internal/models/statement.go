package models

import "github.com/shopspring/decimal"

// Direction is the sign of a transaction. Amounts are always magnitudes.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// StatementMode selects which optional fields the extractor surfaces.
type StatementMode string

const (
	ModeBank       StatementMode = "bank"
	ModeCreditCard StatementMode = "credit"
)

// ParseMode maps user input ("bank", "credit", "card", "creditcard") to a mode.
func ParseMode(s string) (StatementMode, bool) {
	switch s {
	case "bank", "statement":
		return ModeBank, true
	case "credit", "card", "creditcard", "credit-card":
		return ModeCreditCard, true
	}
	return "", false
}

// Transaction represents a single ledger entry.
type Transaction struct {
	Date        string           `json:"date"` // yyyy-MM-dd, or the source token when unparsable
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	Direction   Direction        `json:"type"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
}

// ExtractedFields holds statement metadata. Empty means not found.
type ExtractedFields struct {
	BankName        string `json:"bankName,omitempty"`
	AccountNumber   string `json:"accountNumber,omitempty"`
	AccountHolder   string `json:"accountHolder,omitempty"`
	CardNumber      string `json:"cardNumber,omitempty"`
	ExpiryDate      string `json:"expiryDate,omitempty"`
	StatementPeriod string `json:"statementPeriod,omitempty"`
}

// StatementSummary is the reconciled balance summary.
type StatementSummary struct {
	TotalCredits   decimal.Decimal `json:"totalCredits"`
	TotalDebits    decimal.Decimal `json:"totalDebits"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}

// ExtractedStatement is the full result of one extraction pass.
type ExtractedStatement struct {
	ExtractedFields
	Transactions []Transaction    `json:"transactions"`
	Summary      StatementSummary `json:"summary"`
	DebugLines   []DebugLine      `json:"debugLines,omitempty"`
}

// DebugLine captures what the parser did with each input line.
type DebugLine struct {
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	HasDate bool   `json:"hasDate"`
	Result  string `json:"result"` // "header", "parsed", "buffered", "continuation", "skipped"
	Method  string `json:"method,omitempty"`
}
