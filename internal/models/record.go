package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementRecord is the persisted form of an extraction. Optional
// metadata maps to nullable columns.
type StatementRecord struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Filename        string          `json:"filename" db:"filename"`
	ExtractedData   json.RawMessage `json:"extracted_data" db:"extracted_data"`
	AccountNumber   *string         `json:"account_number,omitempty" db:"account_number"`
	AccountHolder   *string         `json:"account_holder,omitempty" db:"account_holder"`
	BankName        *string         `json:"bank_name,omitempty" db:"bank_name"`
	StatementPeriod *string         `json:"statement_period,omitempty" db:"statement_period"`
	TotalCredits    decimal.Decimal `json:"total_credits" db:"total_credits"`
	TotalDebits     decimal.Decimal `json:"total_debits" db:"total_debits"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// NewStatementRecord shapes an extracted statement for storage.
func NewStatementRecord(filename string, stmt ExtractedStatement) (*StatementRecord, error) {
	// The trace is diagnostic only and is not persisted.
	stmt.DebugLines = nil
	data, err := json.Marshal(stmt)
	if err != nil {
		return nil, fmt.Errorf("marshal extracted statement: %w", err)
	}
	return &StatementRecord{
		ID:              uuid.New(),
		Filename:        filename,
		ExtractedData:   data,
		AccountNumber:   optional(stmt.AccountNumber),
		AccountHolder:   optional(stmt.AccountHolder),
		BankName:        optional(stmt.BankName),
		StatementPeriod: optional(stmt.StatementPeriod),
		TotalCredits:    stmt.Summary.TotalCredits,
		TotalDebits:     stmt.Summary.TotalDebits,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Statement decodes the stored payload back into a statement.
func (r *StatementRecord) Statement() (ExtractedStatement, error) {
	var stmt ExtractedStatement
	if err := json.Unmarshal(r.ExtractedData, &stmt); err != nil {
		return stmt, fmt.Errorf("decode extracted_data for %s: %w", r.ID, err)
	}
	return stmt, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
