package ledger

import (
	"github.com/shopspring/decimal"

	"fiscalsim/pkg/core/dates"
	"fiscalsim/pkg/models"
)

// MonthlySummaries produces the per-month financial summaries in fiscal
// order, each carrying the closing balance snapshot of its month. Call
// after RollForward.
func (a *Aggregator) MonthlySummaries() []models.MonthlySummary {
	order := dates.FiscalMonthOrder(a.cfg.FiscalStartMonth)
	out := make([]models.MonthlySummary, 0, 12)
	for i, m := range order {
		f := a.flows[m-1]

		balances := make(map[models.Account]decimal.Decimal, len(models.AccountOrder))
		for _, acct := range models.AccountOrder {
			balances[acct] = a.buckets[acct][m-1].ClosingBalance
		}

		out = append(out, models.MonthlySummary{
			Month:       m,
			FiscalMonth: i + 1,
			Label:       dates.DisplayMonth(m, a.cfg.FiscalStartMonth),
			Revenue: models.FlowTotals{
				Gross: f.revenueGross,
				Net:   f.revenueNet,
				VAT:   f.revenueVAT,
			},
			Expenses: models.ExpenseTotals{
				Gross:         f.expenseGross,
				Net:           f.expenseNet,
				VAT:           f.expenseVAT,
				DeductibleVAT: f.deductibleVAT,
			},
			NetProfit:       f.revenueNet.Sub(f.expenseNet),
			NetVATPosition:  f.revenueVAT.Sub(f.deductibleVAT),
			AccountBalances: balances,
		})
	}
	return out
}

// Overall sums the monthly summaries and snapshots the closing balances
// of the last fiscal month.
func (a *Aggregator) Overall(monthly []models.MonthlySummary) models.OverallSummary {
	var o models.OverallSummary
	for _, m := range monthly {
		o.TotalRevenue.Gross = o.TotalRevenue.Gross.Add(m.Revenue.Gross)
		o.TotalRevenue.Net = o.TotalRevenue.Net.Add(m.Revenue.Net)
		o.TotalRevenue.VAT = o.TotalRevenue.VAT.Add(m.Revenue.VAT)
		o.TotalExpenses.Gross = o.TotalExpenses.Gross.Add(m.Expenses.Gross)
		o.TotalExpenses.Net = o.TotalExpenses.Net.Add(m.Expenses.Net)
		o.TotalExpenses.VAT = o.TotalExpenses.VAT.Add(m.Expenses.VAT)
		o.TotalExpenses.DeductibleVAT = o.TotalExpenses.DeductibleVAT.Add(m.Expenses.DeductibleVAT)
	}
	o.NetProfit = o.TotalRevenue.Net.Sub(o.TotalExpenses.Net)
	o.TotalVATCollected = o.TotalRevenue.VAT
	o.TotalVATDeductible = o.TotalExpenses.DeductibleVAT
	o.NetVATOwed = o.TotalVATCollected.Sub(o.TotalVATDeductible)

	if len(monthly) > 0 {
		last := monthly[len(monthly)-1]
		o.FinalAccountBalances = make(map[models.Account]decimal.Decimal, len(last.AccountBalances))
		for acct, v := range last.AccountBalances {
			o.FinalAccountBalances[acct] = v
		}
	}
	return o
}
