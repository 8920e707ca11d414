package models

import "github.com/shopspring/decimal"

// TransactionRecord is one posting applied to a monthly account bucket.
type TransactionRecord struct {
	Date         string          `json:"date"`
	OccurrenceID string          `json:"occurrenceId"`
	PatternName  string          `json:"patternName"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         PatternKind     `json:"kind"`
}

// BalanceSummary aggregates the postings of one bucket.
type BalanceSummary struct {
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
	NetChange    decimal.Decimal `json:"netChange"`
}

// MonthlyAccountBalance is the state of one account for one calendar month.
type MonthlyAccountBalance struct {
	Account        Account             `json:"account"`
	Month          int                 `json:"month"`
	OpeningBalance decimal.Decimal     `json:"openingBalance"`
	Transactions   []TransactionRecord `json:"transactions"`
	ClosingBalance decimal.Decimal     `json:"closingBalance"`
	Summary        BalanceSummary      `json:"summary"`
}

// FlowTotals aggregates revenue flows.
type FlowTotals struct {
	Gross decimal.Decimal `json:"gross"`
	Net   decimal.Decimal `json:"net"`
	VAT   decimal.Decimal `json:"vat"`
}

// ExpenseTotals aggregates expense flows. DeductibleVAT is the portion of
// VAT that actually posted to the vat account.
type ExpenseTotals struct {
	Gross         decimal.Decimal `json:"gross"`
	Net           decimal.Decimal `json:"net"`
	VAT           decimal.Decimal `json:"vat"`
	DeductibleVAT decimal.Decimal `json:"deductibleVat"`
}

// MonthlySummary is the financial summary of one calendar month, reported
// in fiscal order.
type MonthlySummary struct {
	Month           int                         `json:"month"`
	FiscalMonth     int                         `json:"fiscalMonth"`
	Label           string                      `json:"label"`
	Revenue         FlowTotals                  `json:"revenue"`
	Expenses        ExpenseTotals               `json:"expenses"`
	NetProfit       decimal.Decimal             `json:"netProfit"`
	NetVATPosition  decimal.Decimal             `json:"netVatPosition"`
	AccountBalances map[Account]decimal.Decimal `json:"accountBalances"`
}

// OverallSummary totals the twelve fiscal months. FinalAccountBalances
// snapshots the closing balances of the last fiscal month.
type OverallSummary struct {
	TotalRevenue         FlowTotals                  `json:"totalRevenue"`
	TotalExpenses        ExpenseTotals               `json:"totalExpenses"`
	NetProfit            decimal.Decimal             `json:"netProfit"`
	TotalVATCollected    decimal.Decimal             `json:"totalVatCollected"`
	TotalVATDeductible   decimal.Decimal             `json:"totalVatDeductible"`
	NetVATOwed           decimal.Decimal             `json:"netVatOwed"`
	FinalAccountBalances map[Account]decimal.Decimal `json:"finalAccountBalances"`
}

// ResultMetadata carries run accounting.
type ResultMetadata struct {
	TotalOccurrences int    `json:"totalOccurrences"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	EngineVersion    string `json:"engineVersion"`
}

// SimulationResults is the immutable outcome of one run. MonthlyBalances
// is sorted in fiscal order then account order; MonthlyTotals in fiscal
// order.
type SimulationResults struct {
	Year             int                     `json:"year"`
	FiscalStartMonth int                     `json:"fiscalStartMonth"`
	MonthlyBalances  []MonthlyAccountBalance `json:"monthlyBalances"`
	MonthlyTotals    []MonthlySummary        `json:"monthlyTotals"`
	OverallTotals    OverallSummary          `json:"overallTotals"`
	Metadata         ResultMetadata          `json:"metadata"`
}
