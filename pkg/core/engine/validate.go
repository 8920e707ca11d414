package engine

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"fiscalsim/pkg/core/dates"
	"fiscalsim/pkg/models"
)

// MaxPatterns bounds the pattern count of a single run.
const MaxPatterns = 100

var validate = func() *validator.Validate {
	v := validator.New()
	// Report field names as their json tags so validation errors match
	// the wire format clients actually send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

func structErr(scope string, err error) error {
	var verrs validator.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
		f := verrs[0]
		return invalid(scope+"."+f.Field(), "failed %q constraint", f.Tag())
	}
	return invalid(scope, "%v", err)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	if v, ok := err.(validator.ValidationErrors); ok {
		*target = v
		return true
	}
	return false
}

// validateInputs checks the fiscal configuration, company context and
// pattern set before any simulation state exists.
func validateInputs(cfg models.FiscalConfig, company models.Company, revs []models.RevenuePattern, exps []models.ExpensePattern) error {
	if err := validate.Struct(cfg); err != nil {
		return structErr("fiscalConfig", err)
	}
	for acct := range cfg.StartingBalances {
		if !acct.Valid() {
			return invalid("fiscalConfig.startingBalances", "unknown account %q", acct)
		}
	}

	if err := validate.Struct(company); err != nil {
		return structErr("company", err)
	}
	if company.FiscalYear != "" &&
		company.FiscalYear != models.FiscalYearCalendar &&
		company.FiscalYear != models.FiscalYearFiscal {
		return invalid("company.fiscalYear", "must be calendar or fiscal, got %q", company.FiscalYear)
	}

	if n := len(revs) + len(exps); n > MaxPatterns {
		return invalid("patterns", "count %d exceeds limit of %d", n, MaxPatterns)
	}

	for i := range revs {
		if err := validatePatternBase("revenuePatterns", &revs[i].PatternBase); err != nil {
			return err
		}
		if revs[i].VATRate != nil && !models.ValidVATRate(*revs[i].VATRate) {
			return invalid("revenuePatterns."+revs[i].ID, "unknown VAT rate %v", *revs[i].VATRate)
		}
	}
	for i := range exps {
		if err := validatePatternBase("expensePatterns", &exps[i].PatternBase); err != nil {
			return err
		}
		if !exps[i].Category.Valid() {
			return invalid("expensePatterns."+exps[i].ID, "unknown category %q", exps[i].Category)
		}
		if exps[i].VATRate != nil && !models.ValidVATRate(*exps[i].VATRate) {
			return invalid("expensePatterns."+exps[i].ID, "unknown VAT rate %v", *exps[i].VATRate)
		}
	}
	return nil
}

func validatePatternBase(scope string, p *models.PatternBase) error {
	field := scope + "." + p.ID
	if p.ID == "" {
		return invalid(scope, "pattern id is required")
	}
	if !p.Amount.IsPositive() {
		return invalid(field, "amount must be positive, got %s", p.Amount)
	}
	switch p.Frequency {
	case models.FrequencyDaily, models.FrequencyMonthly, models.FrequencyQuarterly, models.FrequencyYearly:
	default:
		return invalid(field, "unknown frequency %q", p.Frequency)
	}
	if p.StartMonth < 1 || p.StartMonth > 12 {
		return invalid(field, "startMonth %d out of range", p.StartMonth)
	}

	// Daily-only fields are ignored for other frequencies, never errors.
	if p.Frequency != models.FrequencyDaily {
		return nil
	}
	if p.DaysMask == nil {
		return invalid(field, "daily pattern requires daysMask")
	}
	if *p.DaysMask < 0 || *p.DaysMask > 127 {
		return invalid(field, "daysMask %d out of range [0,127]", *p.DaysMask)
	}
	if p.StartDate != "" {
		if _, err := dates.ParseISO(p.StartDate); err != nil {
			return invalid(field, "bad startDate: %v", err)
		}
	}
	for _, o := range p.DayOffOverrides {
		if _, err := dates.ParseISO(o.Date); err != nil {
			return invalid(field, "bad override date: %v", err)
		}
	}
	return nil
}
