package parser

import (
	"fmt"
	"sync"
	"testing"
)

func TestBankNameStrategies(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     string
		strategy string
	}{
		{"known institution", "Statement from WELLS FARGO\nAccount 123", "Wells Fargo", "known-institution"},
		{"known institution wins over heading", "FIRST HOMETOWN BANK\nServiced by Capital One", "Capital One", "known-institution"},
		{"heading", "JRMartin Choice Bank\n123 Main Street", "JRMartin Choice Bank", "heading"},
		{"all caps heading is title-cased", "FIRST HOMETOWN BANK\n", "First Hometown Bank", "heading"},
		{"generic credit union", "Thanks for choosing Pacific Coast Credit Union today", "Pacific Coast Credit Union", "generic"},
		{"lead word dropped", "Welcome to Your Riverside Bank", "Riverside Bank", "generic"},
		{"us bank needs whole words", "previous bank statement", "", ""},
		{"none", "no institution here", "", ""},
	}

	for _, tt := range tests {
		got, strategy := firstMatch(tt.text, bankNameStrategies)
		if got != tt.want || strategy != tt.strategy {
			t.Errorf("%s: got (%q, %q), want (%q, %q)", tt.name, got, strategy, tt.want, tt.strategy)
		}
	}
}

func TestAccountNumberStrategies(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     string
		strategy string
	}{
		{"primary account", "Primary Account: 00000958581485", "00000958581485", "primary-account"},
		{"account number label", "Account Number: 1234 5678 90", "1234567890", "account-number-label"},
		{"account no label", "Account No. 12-345-678", "12-345-678", "account-number-label"},
		{"a/c label", "A/C No: 87654321", "87654321", "a/c-label"},
		{"account colon", "Account: 11223344", "11223344", "account-colon"},
		{"labeled wins over bare", "Ref 99999999999\nAccount number 12345678", "12345678", "account-number-label"},
		{"bare digits", "Ref 123456789012", "123456789012", "bare-digits"},
		{"too short", "Branch 1234567", "", ""},
	}

	for _, tt := range tests {
		got, strategy := firstMatch(tt.text, accountNumberStrategies)
		if got != tt.want || strategy != tt.strategy {
			t.Errorf("%s: got (%q, %q), want (%q, %q)", tt.name, got, strategy, tt.want, tt.strategy)
		}
	}
}

func TestAccountHolderStrategies(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"holder label", "Account holder: John Smith\nSort code 12-34-56", "John Smith"},
		{"name label", "Name: Mary Jones", "Mary Jones"},
		{"customer label", "Customer: Ali Khan", "Ali Khan"},
		{"all caps", "FIRST HOMETOWN BANK\nSTATEMENT SUMMARY\nJANE MARTIN\n1 Oak Ave", "JANE MARTIN"},
		{"no candidate", "lower case text only", ""},
	}

	for _, tt := range tests {
		got, _ := firstMatch(tt.text, accountHolderStrategies)
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCardNumberStrategies(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled with spaces", "Card Number: 4111 1111 1111 1111", "4111111111111111"},
		{"labeled with dashes", "Card No 5500-0000-0000-0004\n", "5500000000000004"},
		{"masked", "Card ending XXXX XXXX XXXX 1234 summary", "XXXX XXXX XXXX 1234"},
		{"bare", "pay with 378282246310005 today", "378282246310005"},
		{"too short", "ref 123456789", ""},
	}

	for _, tt := range tests {
		got, _ := firstMatch(tt.text, cardNumberStrategies)
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExpiryStrategies(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled", "Valid Thru 09/27", "09/27"},
		{"labeled long year", "Expiry date: 11 / 2029", "11/2029"},
		{"bare", "Card 4111 exp on file 12/26 thanks", "12/26"},
		{"full date is not an expiry", "Paid on statement 04/30/2018 thanks", ""},
		{"leading date is not an expiry", "03/18  AMAZON  45.20", ""},
	}

	for _, tt := range tests {
		got, _ := firstMatch(tt.text, expiryStrategies)
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestStatementPeriodStrategies(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     string
		strategy string
	}{
		{"through", "Statement Period: April 1, 2018 through April 30, 2018", "2018-04-01 - 2018-04-30", "date-range"},
		{"from to", "From 01/03/2024 to 31/03/2024", "2024-03-01 - 2024-03-31", "date-range"},
		{"yearless start", "Period: Apr 1 to Apr 30, 2018", "2018-04-01 - 2018-04-30", "date-range"},
		{"reversed is reordered", "31/03/2024 - 01/03/2024", "2024-03-01 - 2024-03-31", "date-range"},
		{"balance anchors", "Balance as of 03/01/2024 1,000.00\nBalance as of 31/01/2024 900.00", "2024-01-03 - 2024-01-31", "balance-as-of"},
		{"single anchor", "Your balance as of April 30, 2018 was", "2018-04-30", "balance-as-of"},
		{"none", "no dates", "", ""},
	}

	for _, tt := range tests {
		got, strategy := firstMatch(tt.text, periodStrategies)
		if got != tt.want || strategy != tt.strategy {
			t.Errorf("%s: got (%q, %q), want (%q, %q)", tt.name, got, strategy, tt.want, tt.strategy)
		}
	}
}

func TestStatementYear(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Statement Period: April 1, 2018 through April 30, 2018", "2018"},
		{"Issued 15 Jan 2023\nApr 8 Coffee 4.50", "2023"},
		{"Apr 8 Coffee 4.50", ""},
	}
	for _, tt := range tests {
		if got := StatementYear(tt.text); got != tt.want {
			t.Errorf("StatementYear(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtractFields_Concurrent(t *testing.T) {
	text := "FIRST NATIONAL BANK\nAccount Number: 12345678\nStatement Period: 01/03/2024 - 31/03/2024"
	want := ExtractFields(text)

	var wg sync.WaitGroup
	errs := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := ExtractFields(text); got != want {
				errs <- fmt.Sprintf("got %+v, want %+v", got, want)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
	if want.BankName != "First National Bank" {
		t.Errorf("BankName = %q", want.BankName)
	}
}
