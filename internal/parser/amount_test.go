package parser

import "testing"

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"$1,234.56", "1234.56"},
		{"£ 99.10", "99.1"},
		{"1.234.567", "1234567"},
		{"1,234,567", "1234567"},
		{"12,50", "12.5"},
		{"1,234", "1234"},
		{"272.45", "272.45"},
		{"-45.00", "45"},
		{"(45.00)", "45"},
		{"1 234,56", "1234.56"},
		{"", "0"},
		{"abc", "0"},
		{"12a.50", "0"},
	}

	for _, tt := range tests {
		got := NormalizeAmount(tt.input)
		if got.String() != tt.want {
			t.Errorf("NormalizeAmount(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeAmountFixed(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"40,000,00", "40000"},
		{"44.079.83", "44079.83"},
		{"1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1,234,567", "1234567"},
		{"5,506.54", "5506.54"},
		{"12,50", "12.5"},
		{"garbage", "0"},
	}

	for _, tt := range tests {
		got := NormalizeAmountFixed(tt.input)
		if got.String() != tt.want {
			t.Errorf("NormalizeAmountFixed(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeAmount_NeverNegative(t *testing.T) {
	for _, input := range []string{"-1.00", "-1,000.00", "1,000.00-", "(3.50)", "+-2"} {
		if NormalizeAmount(input).IsNegative() {
			t.Errorf("NormalizeAmount(%q) is negative", input)
		}
		if NormalizeAmountFixed(input).IsNegative() {
			t.Errorf("NormalizeAmountFixed(%q) is negative", input)
		}
	}
}
