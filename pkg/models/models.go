// Package models defines the shared data types of the simulation engine:
// accounts, fiscal configuration, recurring patterns and the occurrences
// derived from them.
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account identifies one of the four ledger accounts. The declaration
// order is the canonical output order.
type Account string

const (
	AccountOperating Account = "operating"
	AccountSavings   Account = "savings"
	AccountPersonal  Account = "personal"
	AccountVAT       Account = "vat"
)

// AccountOrder is the fixed ordering used for deterministic output.
var AccountOrder = []Account{AccountOperating, AccountSavings, AccountPersonal, AccountVAT}

// Valid reports whether a is one of the four known accounts.
func (a Account) Valid() bool {
	switch a {
	case AccountOperating, AccountSavings, AccountPersonal, AccountVAT:
		return true
	}
	return false
}

// MoneyTolerance is the absolute tolerance for balance comparisons.
// Two amounts within one cent of each other are considered equal.
var MoneyTolerance = decimal.NewFromFloat(0.01)

// MoneyEqual compares two amounts at cent tolerance.
func MoneyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(MoneyTolerance) <= 0
}

// FiscalYearKind distinguishes a calendar fiscal year from a shifted one.
type FiscalYearKind string

const (
	FiscalYearCalendar FiscalYearKind = "calendar"
	FiscalYearFiscal   FiscalYearKind = "fiscal"
)

// Company is the immutable company context for a run. The engine reads
// ID and HolidayRegion; the remaining fields are opaque descriptive data
// that must merely be present.
type Company struct {
	ID             string         `json:"id" validate:"required"`
	UserID         string         `json:"userId" validate:"required"`
	Name           string         `json:"name"`
	LegalForm      string         `json:"legalForm" validate:"required"`
	ActivitySector string         `json:"activitySector" validate:"required"`
	Capital        string         `json:"capital" validate:"required"`
	BankPartner    string         `json:"bankPartner" validate:"required"`
	FiscalYear     FiscalYearKind `json:"fiscalYear,omitempty"`
	HolidayRegion  string         `json:"holidayRegion,omitempty"`
}

// FiscalConfig carries the projection window and the starting balances.
type FiscalConfig struct {
	Year             int                         `json:"year" validate:"min=2020,max=2030"`
	FiscalStartMonth int                         `json:"fiscalStartMonth" validate:"min=1,max=12"`
	StartingBalances map[Account]decimal.Decimal `json:"startingBalances"`
}

// StartingBalance returns the configured balance for an account, zero if unset.
func (c FiscalConfig) StartingBalance(a Account) decimal.Decimal {
	if v, ok := c.StartingBalances[a]; ok {
		return v
	}
	return decimal.Zero
}

// Frequency of a recurring pattern.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// PatternKind is the discriminator of the pattern sum type.
type PatternKind string

const (
	KindRevenue PatternKind = "revenue"
	KindExpense PatternKind = "expense"
)

// ExpenseCategory is the closed set of expense classifications.
type ExpenseCategory string

const (
	CategoryGeneral      ExpenseCategory = "general"
	CategoryRent         ExpenseCategory = "rent"
	CategoryUtilities    ExpenseCategory = "utilities"
	CategorySubscription ExpenseCategory = "subscription"
	CategoryInsurance    ExpenseCategory = "insurance"
	CategoryMarketing    ExpenseCategory = "marketing"
	CategoryTravel       ExpenseCategory = "travel"
	CategoryEquipment    ExpenseCategory = "equipment"
)

// ExpenseCategories lists every valid category.
var ExpenseCategories = []ExpenseCategory{
	CategoryGeneral, CategoryRent, CategoryUtilities, CategorySubscription,
	CategoryInsurance, CategoryMarketing, CategoryTravel, CategoryEquipment,
}

// Valid reports whether c belongs to the closed category set.
func (c ExpenseCategory) Valid() bool {
	for _, v := range ExpenseCategories {
		if c == v {
			return true
		}
	}
	return false
}

// VATRates is the allowed revenue VAT rate set, in percent.
var VATRates = []float64{0, 5.5, 10, 20}

// ValidVATRate reports whether r (percent) is one of the allowed rates.
func ValidVATRate(r float64) bool {
	for _, v := range VATRates {
		if r == v {
			return true
		}
	}
	return false
}

// DefaultVATPercent is applied when a pattern carries no explicit rate.
const DefaultVATPercent = 20.0

// DayOffOverride pins the active state of a single date of a daily
// pattern, overriding mask, weekend and holiday rules. Overrides are
// keyed by date; when duplicates exist the last one wins.
type DayOffOverride struct {
	Date   string `json:"date"`
	Active bool   `json:"active"`
	Reason string `json:"reason,omitempty"`
}

// PatternBase holds the fields shared by both pattern variants.
// The daily-only fields are ignored for non-daily frequencies.
type PatternBase struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Frequency  Frequency       `json:"frequency"`
	StartMonth int             `json:"startMonth"`

	// Daily-only fields.
	DaysMask        *int             `json:"daysMask,omitempty"`
	ExcludeWeekends bool             `json:"excludeWeekends,omitempty"`
	ExcludeHolidays bool             `json:"excludeHolidays,omitempty"`
	StartDate       string           `json:"startDate,omitempty"`
	DayOffOverrides []DayOffOverride `json:"dayOffOverrides,omitempty"`
}

// RevenuePattern is a recurring inflow. VATRate is in percent; when nil
// the default 20% applies.
type RevenuePattern struct {
	PatternBase
	VATRate *float64 `json:"vatRate,omitempty"`
}

// ExpensePattern is a recurring outflow. VATRate is in percent; when nil
// the default 20% applies. VATDeductible decides whether the VAT portion
// posts to the vat account.
type ExpensePattern struct {
	PatternBase
	Category      ExpenseCategory `json:"category"`
	VATDeductible bool            `json:"vatDeductible"`
	VATRate       *float64        `json:"vatRate,omitempty"`
}

// AccountPosting is one signed entry against one account. Positive
// amounts are debits (inflows), negative amounts credits (outflows).
type AccountPosting struct {
	Account     Account         `json:"account"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Occurrence is one dated financial event derived from a pattern.
type Occurrence struct {
	ID            string           `json:"id"`
	PatternID     string           `json:"patternId"`
	PatternName   string           `json:"patternName"`
	Date          string           `json:"date"`
	Kind          PatternKind      `json:"kind"`
	Category      ExpenseCategory  `json:"category,omitempty"`
	GrossAmount   decimal.Decimal  `json:"grossAmount"`
	VATRate       decimal.Decimal  `json:"vatRate"` // fraction, e.g. 0.2
	VATAmount     decimal.Decimal  `json:"vatAmount"`
	NetAmount     decimal.Decimal  `json:"netAmount"`
	VATDeductible bool             `json:"vatDeductible,omitempty"`
	Postings      []AccountPosting `json:"postings"`
}

// OccurrenceID derives the canonical occurrence identifier from a
// pattern id and an ISO date.
func OccurrenceID(patternID, date string) string {
	return fmt.Sprintf("%s-%s", patternID, date)
}
