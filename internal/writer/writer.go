// Package writer exports extracted statements.
package writer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// ErrUnknownFormat is returned by New for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Writer serializes a statement.
type Writer interface {
	Write(out io.Writer, stmt *models.ExtractedStatement) error
	// Extension is the file extension, including the dot.
	Extension() string
}

// New returns the writer for format: csv, xlsx or json. includeHeader adds
// statement metadata and summary rows where the format separates them.
func New(format string, includeHeader bool) (Writer, error) {
	switch strings.ToLower(format) {
	case "csv":
		return &CSVWriter{IncludeHeader: includeHeader}, nil
	case "xlsx", "excel":
		return &XLSXWriter{}, nil
	case "json":
		return &JSONWriter{Indent: true}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteToFile writes stmt to a new file at path.
func WriteToFile(w Writer, path string, stmt *models.ExtractedStatement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	if err := w.Write(f, stmt); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// JSONWriter writes the statement as a JSON document.
type JSONWriter struct {
	Indent bool
}

func (w *JSONWriter) Extension() string { return ".json" }

func (w *JSONWriter) Write(out io.Writer, stmt *models.ExtractedStatement) error {
	enc := json.NewEncoder(out)
	if w.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(stmt); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// metadataRows lists the statement's non-empty fields as label/value pairs.
func metadataRows(f models.ExtractedFields) [][2]string {
	var rows [][2]string
	for _, kv := range [][2]string{
		{"Bank", f.BankName},
		{"Account Holder", f.AccountHolder},
		{"Account Number", f.AccountNumber},
		{"Card Number", f.CardNumber},
		{"Expiry Date", f.ExpiryDate},
		{"Statement Period", f.StatementPeriod},
	} {
		if kv[1] != "" {
			rows = append(rows, kv)
		}
	}
	return rows
}

type summaryRow struct {
	label string
	value decimal.Decimal
}

func summaryRows(s models.StatementSummary) []summaryRow {
	return []summaryRow{
		{"Opening Balance", s.OpeningBalance},
		{"Total Credits", s.TotalCredits},
		{"Total Debits", s.TotalDebits},
		{"Closing Balance", s.ClosingBalance},
	}
}

var columns = []string{"Date", "Description", "Type", "Amount", "Balance"}
