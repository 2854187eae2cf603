package writer

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&XLSXWriter{}).Write(&buf, sampleStatement()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{transactionsSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(transactionsSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, []string{"2018-04-08", "Insurance", "CREDIT", "272.45", "5506.54"}, rows[1])
	assert.Equal(t, []string{"2018-04-10", "Online Transfer to Savings", "DEBIT", "500"}, rows[2])

	summary, err := f.GetRows(summarySheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Contains(t, summary, []string{"Bank", "JRMartin Choice Bank"})
	assert.Contains(t, summary, []string{"Opening Balance", "5234.09"})
	assert.Contains(t, summary, []string{"Transactions", "2"})
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteToFile(&XLSXWriter{}, path, sampleStatement()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(transactionsSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Insurance", v)

	assert.Error(t, WriteToFile(&CSVWriter{}, filepath.Join(t.TempDir(), "missing", "out.csv"), sampleStatement()))
}
