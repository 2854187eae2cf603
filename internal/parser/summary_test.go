package parser

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

var sampleLedger = []models.Transaction{
	{Description: "Salary", Amount: dec("1000.00"), Direction: models.Credit, Balance: decPtr("1500.00")},
	{Description: "Rent", Amount: dec("700.00"), Direction: models.Debit, Balance: decPtr("800.00")},
	{Description: "Coffee", Amount: dec("4.50"), Direction: models.Debit},
}

func TestReconcile_Derived(t *testing.T) {
	s := Reconcile("no labels at all", sampleLedger)

	if s.TotalCredits.String() != "1000" || s.TotalDebits.String() != "704.5" {
		t.Errorf("totals = credits %s, debits %s", s.TotalCredits, s.TotalDebits)
	}
	if s.OpeningBalance.String() != "500" {
		t.Errorf("opening = %s, want 500", s.OpeningBalance)
	}
	// The last transaction has no balance; the closing figure is the last
	// one printed.
	if s.ClosingBalance.String() != "800" {
		t.Errorf("closing = %s, want 800", s.ClosingBalance)
	}
}

func TestReconcile_ExplicitWins(t *testing.T) {
	text := "Opening Balance   $1,111.11\n" +
		"Total withdrawals  2,222.22\n" +
		"Total deposits     3,333.33\n" +
		"Closing Balance\n" +
		"   4,444.44\n"
	s := Reconcile(text, sampleLedger)

	want := models.StatementSummary{
		OpeningBalance: dec("1111.11"),
		TotalDebits:    dec("2222.22"),
		TotalCredits:   dec("3333.33"),
		ClosingBalance: dec("4444.44"),
	}
	if !s.OpeningBalance.Equal(want.OpeningBalance) || !s.ClosingBalance.Equal(want.ClosingBalance) ||
		!s.TotalDebits.Equal(want.TotalDebits) || !s.TotalCredits.Equal(want.TotalCredits) {
		t.Errorf("got %+v, want %+v", s, want)
	}
}

func TestReconcile_MixedSources(t *testing.T) {
	// Only the closing balance is printed, behind a date inside the ledger.
	s := Reconcile("30 Apr 2018 Closing balance 9,999.99", sampleLedger)
	if s.ClosingBalance.String() != "9999.99" {
		t.Errorf("closing = %s", s.ClosingBalance)
	}
	if s.OpeningBalance.String() != "500" || s.TotalCredits.String() != "1000" {
		t.Errorf("derived figures = %+v", s)
	}
}

func TestReconcile_Empty(t *testing.T) {
	s := Reconcile("", nil)
	if !s.TotalCredits.IsZero() || !s.TotalDebits.IsZero() || !s.OpeningBalance.IsZero() || !s.ClosingBalance.IsZero() {
		t.Errorf("expected zeros, got %+v", s)
	}
}

func TestInferDirection(t *testing.T) {
	tests := []struct {
		desc string
		want models.Direction
	}{
		{"PAYROLL ACME", models.Credit},
		{"Interest paid", models.Credit},
		{"ATM withdrawal", models.Debit},
		{"Monthly fee", models.Debit},
		{"Refund of charge", models.Credit},
		{"Grocer", models.Debit},
	}
	for _, tt := range tests {
		if got := InferDirection(tt.desc); got != tt.want {
			t.Errorf("InferDirection(%q) = %s, want %s", tt.desc, got, tt.want)
		}
	}
}

func TestDirectionFor(t *testing.T) {
	tests := []struct {
		name string
		line string
		desc string
		mode models.StatementMode
		want models.Direction
	}{
		{"bank negative is money out", "-20.00", "Transfer", models.ModeBank, models.Debit},
		{"bank keyword", "20.00", "Salary", models.ModeBank, models.Credit},
		{"marker wins", "20.00 DR", "Refund", models.ModeBank, models.Debit},
		{"card negative is a payment", "-20.00", "Shop", models.ModeCreditCard, models.Credit},
		{"card refund", "20.00", "REFUND AMAZON", models.ModeCreditCard, models.Credit},
		{"card interest is a charge", "9.99", "INTEREST CHARGE", models.ModeCreditCard, models.Debit},
		{"card credit marker", "20.00 CR", "Shop", models.ModeCreditCard, models.Credit},
	}
	for _, tt := range tests {
		tokens := moneyTokens(tt.line)
		if len(tokens) != 1 {
			t.Fatalf("%s: expected one token in %q", tt.name, tt.line)
		}
		if got := directionFor(tokens[0], tt.desc, tt.mode); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}
