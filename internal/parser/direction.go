package parser

import (
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Keyword sets used when column positions cannot tell debits from credits.
var (
	creditKeywords = []string{"deposit", "payroll", "insurance", "transfer", "salary", "refund", "interest"}
	debitKeywords  = []string{"withdrawal", "fee", "charge", "purchase", "atm", "bill payment"}
)

// InferDirection guesses the direction of a transaction from its
// description. Credit keywords win over debit keywords; with no keyword the
// transaction is a debit.
func InferDirection(description string) models.Direction {
	dir, _ := keywordDirection(description)
	return dir
}

// keywordDirection reports whether any keyword matched.
func keywordDirection(description string) (models.Direction, bool) {
	d := strings.ToLower(description)
	switch {
	case containsAny(d, creditKeywords):
		return models.Credit, true
	case containsAny(d, debitKeywords):
		return models.Debit, true
	}
	return models.Debit, false
}

// cardCreditKeywords mark payments and refunds on a card statement.
var cardCreditKeywords = []string{"payment", "credit", "refund", "return"}

// directionFor decides a single-column amount. A printed CR/DR marker wins,
// then the sign, then keywords. A negative amount is money out of a bank
// account but a payment onto a card. On a card everything other than a
// payment or refund is a charge.
func directionFor(t moneyToken, description string, mode models.StatementMode) models.Direction {
	switch t.marker {
	case "CR":
		return models.Credit
	case "DR":
		return models.Debit
	}
	if mode == models.ModeCreditCard {
		if t.negative || containsAny(strings.ToLower(description), cardCreditKeywords) {
			return models.Credit
		}
		return models.Debit
	}
	if t.negative {
		return models.Debit
	}
	return InferDirection(description)
}
