package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fiscalsim/pkg/core/dates"
	"fiscalsim/pkg/models"
)

// InvariantViolation reports a failed conservation check. It names the
// invariant, the account involved (empty for VAT totals) and both sides
// of the comparison. A violation implies an engine bug, not bad input.
type InvariantViolation struct {
	Invariant string
	Account   models.Account
	Left      decimal.Decimal
	Right     decimal.Decimal
}

func (e *InvariantViolation) Error() string {
	delta := e.Left.Sub(e.Right)
	if e.Account != "" {
		return fmt.Sprintf("invariant %s violated for account %s: %s != %s (delta %s)",
			e.Invariant, e.Account, e.Left, e.Right, delta)
	}
	return fmt.Sprintf("invariant %s violated: %s != %s (delta %s)",
		e.Invariant, e.Left, e.Right, delta)
}

func violation(inv string, acct models.Account, left, right decimal.Decimal) error {
	return &InvariantViolation{Invariant: inv, Account: acct, Left: left, Right: right}
}

// CheckInvariants proves the three classes of conservation laws after
// summarization: opening seeds, roll-forward continuity, total
// conservation and VAT consistency. All comparisons tolerate one cent.
func (a *Aggregator) CheckInvariants(monthly []models.MonthlySummary, overall models.OverallSummary) error {
	order := dates.FiscalMonthOrder(a.cfg.FiscalStartMonth)

	for _, acct := range models.AccountOrder {
		bucket := a.buckets[acct]
		seed := a.cfg.StartingBalance(acct)

		// Opening seed.
		first := bucket[order[0]-1]
		if !models.MoneyEqual(first.OpeningBalance, seed) {
			return violation("opening-seed", acct, first.OpeningBalance, seed)
		}

		// Roll-forward continuity.
		sumNet := decimal.Zero
		for i, m := range order {
			mb := bucket[m-1]
			sumNet = sumNet.Add(mb.Summary.NetChange)
			if !models.MoneyEqual(mb.ClosingBalance, mb.OpeningBalance.Add(mb.Summary.NetChange)) {
				return violation("roll-forward", acct, mb.ClosingBalance, mb.OpeningBalance.Add(mb.Summary.NetChange))
			}
			if i == 0 {
				continue
			}
			prev := bucket[order[i-1]-1]
			if !models.MoneyEqual(mb.OpeningBalance, prev.ClosingBalance) {
				return violation("roll-forward", acct, mb.OpeningBalance, prev.ClosingBalance)
			}
		}

		// Conservation: final closing equals seed plus total net change.
		last := bucket[order[11]-1]
		if !models.MoneyEqual(last.ClosingBalance, seed.Add(sumNet)) {
			return violation("conservation", acct, last.ClosingBalance, seed.Add(sumNet))
		}
	}

	// VAT consistency across the summaries.
	sumCollected := decimal.Zero
	sumDeductible := decimal.Zero
	for _, m := range monthly {
		sumCollected = sumCollected.Add(m.Revenue.VAT)
		sumDeductible = sumDeductible.Add(m.Expenses.DeductibleVAT)
	}
	if !models.MoneyEqual(sumCollected, overall.TotalVATCollected) {
		return violation("vat-consistency", "", sumCollected, overall.TotalVATCollected)
	}
	if !models.MoneyEqual(sumDeductible, overall.TotalVATDeductible) {
		return violation("vat-consistency", "", sumDeductible, overall.TotalVATDeductible)
	}
	if !models.MoneyEqual(overall.NetVATOwed, overall.TotalVATCollected.Sub(overall.TotalVATDeductible)) {
		return violation("vat-consistency", "", overall.NetVATOwed, overall.TotalVATCollected.Sub(overall.TotalVATDeductible))
	}
	return nil
}
