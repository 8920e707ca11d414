// Package ledger applies postings into per-account monthly buckets,
// performs the fiscal-ordered roll-forward and computes the monthly and
// overall summaries. One Aggregator is owned by a single simulation run
// and is not safe for concurrent use.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fiscalsim/pkg/core/dates"
	"fiscalsim/pkg/models"
)

// monthFlow accumulates the revenue/expense aggregates of one calendar
// month while postings are applied.
type monthFlow struct {
	revenueGross  decimal.Decimal
	revenueNet    decimal.Decimal
	revenueVAT    decimal.Decimal
	expenseGross  decimal.Decimal
	expenseNet    decimal.Decimal
	expenseVAT    decimal.Decimal
	deductibleVAT decimal.Decimal
}

// Aggregator owns the transient ledger of one run: a bucket per account
// per calendar month, seeded from the starting balances at the first
// fiscal month.
type Aggregator struct {
	cfg         models.FiscalConfig
	buckets     map[models.Account]*[12]models.MonthlyAccountBalance
	flows       [12]monthFlow
	occurrences int
	rolled      bool
}

// New seeds a ledger for the fiscal configuration. The bucket at the
// fiscal start month opens with the configured starting balance; every
// other month opens at zero until the roll-forward runs.
func New(cfg models.FiscalConfig) *Aggregator {
	a := &Aggregator{
		cfg:     cfg,
		buckets: make(map[models.Account]*[12]models.MonthlyAccountBalance, len(models.AccountOrder)),
	}
	for _, acct := range models.AccountOrder {
		var months [12]models.MonthlyAccountBalance
		for i := range months {
			months[i] = models.MonthlyAccountBalance{
				Account:        acct,
				Month:          i + 1,
				OpeningBalance: decimal.Zero,
				ClosingBalance: decimal.Zero,
				Transactions:   []models.TransactionRecord{},
			}
		}
		months[cfg.FiscalStartMonth-1].OpeningBalance = cfg.StartingBalance(acct)
		a.buckets[acct] = &months
	}
	return a
}

// Apply records every posting of an occurrence into the bucket of its
// calendar month. Closing balances are left untouched; they are only
// determined by the roll-forward.
func (a *Aggregator) Apply(o models.Occurrence) error {
	if a.rolled {
		return fmt.Errorf("ledger already rolled forward, cannot apply occurrence %s", o.ID)
	}
	d, err := dates.ParseISO(o.Date)
	if err != nil {
		return err
	}
	if d.Year() != a.cfg.Year {
		return fmt.Errorf("occurrence %s outside simulation year %d", o.ID, a.cfg.Year)
	}
	idx := int(d.Month()) - 1

	for _, p := range o.Postings {
		bucket := a.buckets[p.Account]
		if bucket == nil {
			return fmt.Errorf("occurrence %s posts to unknown account %q", o.ID, p.Account)
		}
		mb := &bucket[idx]
		mb.Transactions = append(mb.Transactions, models.TransactionRecord{
			Date:         o.Date,
			OccurrenceID: o.ID,
			PatternName:  o.PatternName,
			Description:  p.Description,
			Amount:       p.Amount,
			Kind:         o.Kind,
		})
		if p.Amount.IsNegative() {
			mb.Summary.TotalCredits = mb.Summary.TotalCredits.Add(p.Amount.Abs())
		} else {
			mb.Summary.TotalDebits = mb.Summary.TotalDebits.Add(p.Amount)
		}
		mb.Summary.NetChange = mb.Summary.NetChange.Add(p.Amount)
	}

	f := &a.flows[idx]
	switch o.Kind {
	case models.KindRevenue:
		f.revenueGross = f.revenueGross.Add(o.GrossAmount)
		f.revenueNet = f.revenueNet.Add(o.NetAmount)
		f.revenueVAT = f.revenueVAT.Add(o.VATAmount)
	case models.KindExpense:
		f.expenseGross = f.expenseGross.Add(o.GrossAmount)
		f.expenseNet = f.expenseNet.Add(o.NetAmount)
		f.expenseVAT = f.expenseVAT.Add(o.VATAmount)
		if o.VATDeductible && o.VATAmount.IsPositive() {
			f.deductibleVAT = f.deductibleVAT.Add(o.VATAmount)
		}
	}
	a.occurrences++
	return nil
}

// RollForward chains closing balances in fiscal order. Must run exactly
// once, after every posting has been applied, so out-of-order occurrence
// arrival cannot break the chain.
func (a *Aggregator) RollForward() {
	order := dates.FiscalMonthOrder(a.cfg.FiscalStartMonth)
	for _, acct := range models.AccountOrder {
		bucket := a.buckets[acct]
		var prior decimal.Decimal
		for i, m := range order {
			mb := &bucket[m-1]
			if i > 0 {
				mb.OpeningBalance = prior
			}
			mb.ClosingBalance = mb.OpeningBalance.Add(mb.Summary.NetChange)
			prior = mb.ClosingBalance
		}
	}
	a.rolled = true
}

// PartialClosing estimates per-account closings of one calendar month
// from its opening plus its own net change only. Before the roll-forward
// non-seed months open at zero, so these figures are indicative.
func (a *Aggregator) PartialClosing(month int) map[models.Account]decimal.Decimal {
	out := make(map[models.Account]decimal.Decimal, len(models.AccountOrder))
	for _, acct := range models.AccountOrder {
		mb := a.buckets[acct][month-1]
		out[acct] = mb.OpeningBalance.Add(mb.Summary.NetChange)
	}
	return out
}

// RevenueNet returns the accumulated net revenue of a calendar month.
func (a *Aggregator) RevenueNet(month int) decimal.Decimal {
	return a.flows[month-1].revenueNet
}

// ExpenseNet returns the accumulated net expenses of a calendar month.
func (a *Aggregator) ExpenseNet(month int) decimal.Decimal {
	return a.flows[month-1].expenseNet
}

// Occurrences reports how many occurrences have been applied.
func (a *Aggregator) Occurrences() int {
	return a.occurrences
}

// Balances flattens the buckets in fiscal order, then account order.
// Call after RollForward.
func (a *Aggregator) Balances() []models.MonthlyAccountBalance {
	order := dates.FiscalMonthOrder(a.cfg.FiscalStartMonth)
	out := make([]models.MonthlyAccountBalance, 0, 12*len(models.AccountOrder))
	for _, m := range order {
		for _, acct := range models.AccountOrder {
			out = append(out, a.buckets[acct][m-1])
		}
	}
	return out
}
