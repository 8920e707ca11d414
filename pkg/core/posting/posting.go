// Package posting derives double-entry account postings from occurrences.
// Revenue posts net to operating and VAT to the vat account; expenses
// credit operating with the net amount and credit the vat account only
// when the expense VAT is deductible.
package posting

import (
	"fmt"

	"fiscalsim/pkg/models"
)

// Build computes and attaches the postings of an occurrence. Postings
// are ordered: the operating entry always comes first.
func Build(o *models.Occurrence) {
	switch o.Kind {
	case models.KindRevenue:
		o.Postings = []models.AccountPosting{
			{
				Account:     models.AccountOperating,
				Amount:      o.NetAmount,
				Description: fmt.Sprintf("Revenue %s (net)", o.PatternName),
			},
			{
				Account:     models.AccountVAT,
				Amount:      o.VATAmount,
				Description: fmt.Sprintf("VAT collected on %s", o.PatternName),
			},
		}

	case models.KindExpense:
		o.Postings = []models.AccountPosting{
			{
				Account:     models.AccountOperating,
				Amount:      o.NetAmount.Neg(),
				Description: fmt.Sprintf("Expense %s (net)", o.PatternName),
			},
		}
		if o.VATDeductible && o.VATAmount.IsPositive() {
			o.Postings = append(o.Postings, models.AccountPosting{
				Account:     models.AccountVAT,
				Amount:      o.VATAmount.Neg(),
				Description: fmt.Sprintf("Deductible VAT on %s", o.PatternName),
			})
		}
	}
}
