package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	// IncludeHeader adds "# Label,value" rows for the statement metadata
	// before the table and for the summary after it.
	IncludeHeader bool
}

func (w *CSVWriter) Extension() string { return ".csv" }

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, stmt *models.ExtractedStatement) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		for _, kv := range metadataRows(stmt.ExtractedFields) {
			if err := writer.Write([]string{"# " + kv[0], kv[1]}); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range stmt.Transactions {
		row := []string{
			txn.Date,
			txn.Description,
			strings.ToUpper(string(txn.Direction)),
			formatAmount(txn.Amount),
			formatBalance(txn.Balance),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	if w.IncludeHeader {
		for _, s := range summaryRows(stmt.Summary) {
			if err := writer.Write([]string{"# " + s.label, s.value.StringFixed(2)}); err != nil {
				return fmt.Errorf("failed to write CSV summary: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatAmount(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return amount.StringFixed(2)
}

// formatBalance leaves unknown balances empty but prints a zero balance.
func formatBalance(balance *decimal.Decimal) string {
	if balance == nil {
		return ""
	}
	return balance.StringFixed(2)
}
