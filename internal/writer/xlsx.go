package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
	// Built-in number format "#,##0.00".
	moneyNumFmt = 4
)

// XLSXWriter writes a workbook with a Transactions sheet and a Summary sheet
// holding the metadata and the balance summary.
type XLSXWriter struct{}

func (w *XLSXWriter) Extension() string { return ".xlsx" }

func (w *XLSXWriter) Write(out io.Writer, stmt *models.ExtractedStatement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), transactionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	if err := writeTransactions(f, stmt.Transactions, bold, money); err != nil {
		return err
	}
	if err := writeSummary(f, stmt, bold, money); err != nil {
		return err
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeTransactions(f *excelize.File, txns []models.Transaction, bold, money int) error {
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(transactionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	if err := f.SetCellStyle(transactionsSheet, "A1", "E1", bold); err != nil {
		return err
	}

	for i, txn := range txns {
		row := []any{
			txn.Date,
			txn.Description,
			strings.ToUpper(string(txn.Direction)),
			txn.Amount.InexactFloat64(),
		}
		if txn.Balance != nil {
			row = append(row, txn.Balance.InexactFloat64())
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return fmt.Errorf("write transaction row %d: %w", i+1, err)
		}
	}

	if len(txns) > 0 {
		last := fmt.Sprintf("E%d", len(txns)+1)
		if err := f.SetCellStyle(transactionsSheet, "D2", last, money); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(transactionsSheet, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(transactionsSheet, "B", "B", 48); err != nil {
		return err
	}
	return f.SetColWidth(transactionsSheet, "D", "E", 14)
}

func writeSummary(f *excelize.File, stmt *models.ExtractedStatement, bold, money int) error {
	row := 1
	put := func(label string, value any, style int) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &[]any{label, value}); err != nil {
			return fmt.Errorf("write summary row %q: %w", label, err)
		}
		if err := f.SetCellStyle(summarySheet, cell, cell, bold); err != nil {
			return err
		}
		if style != 0 {
			valueCell, _ := excelize.CoordinatesToCellName(2, row)
			if err := f.SetCellStyle(summarySheet, valueCell, valueCell, style); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	for _, kv := range metadataRows(stmt.ExtractedFields) {
		if err := put(kv[0], kv[1], 0); err != nil {
			return err
		}
	}
	for _, s := range summaryRows(stmt.Summary) {
		if err := put(s.label, s.value.InexactFloat64(), money); err != nil {
			return err
		}
	}
	if err := put("Transactions", len(stmt.Transactions), 0); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}
