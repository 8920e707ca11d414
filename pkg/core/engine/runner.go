// Package engine orchestrates a simulation run: input validation,
// pattern expansion, posting, ledger aggregation, invariant checking and
// progress emission.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fiscalsim/pkg/core/dates"
	"fiscalsim/pkg/core/expand"
	"fiscalsim/pkg/core/ledger"
	"fiscalsim/pkg/core/posting"
	"fiscalsim/pkg/core/progress"
	"fiscalsim/pkg/models"
)

// EngineVersion is reported in result metadata.
const EngineVersion = "1.2.0"

// SoftDeadline is the per-run performance target. Exceeding it logs a
// warning, never a failure.
const SoftDeadline = 200 * time.Millisecond

var urssafRate = decimal.NewFromFloat(0.45)

// PatternStore supplies the immutable inputs of a run. Implementations
// may be backed by postgres, memory or files; the engine only reads.
type PatternStore interface {
	ListRevenuePatterns(ctx context.Context, companyID string) ([]models.RevenuePattern, error)
	ListExpensePatterns(ctx context.Context, companyID string) ([]models.ExpensePattern, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)
}

// ResultSink receives the final results of a run. A sink failure is
// demoted to a warning; it never aborts the computation.
type ResultSink interface {
	SaveResults(ctx context.Context, companyID string, res *models.SimulationResults) error
}

// Options tune a single run.
type Options struct {
	// SimulationID identifies the run; generated when empty.
	SimulationID string
	// Broadcaster receives progress snapshots; nil disables streaming.
	Broadcaster *progress.Broadcaster
}

// Runner executes simulations. Zero value is usable; Store and Sink are
// optional collaborators.
type Runner struct {
	Store PatternStore
	Sink  ResultSink
	Log   *logrus.Logger
}

// NewRunner wires a runner with its collaborators. Any of them may be nil.
func NewRunner(store PatternStore, sink ResultSink, log *logrus.Logger) *Runner {
	return &Runner{Store: store, Sink: sink, Log: log}
}

func (r *Runner) logger() *logrus.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logrus.StandardLogger()
}

// RunForCompany loads the company and its patterns from the store, then
// runs the simulation. A missing company or store surfaces as NotFound.
func (r *Runner) RunForCompany(ctx context.Context, companyID string, cfg models.FiscalConfig, opts Options) (*models.SimulationResults, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("no pattern store configured")
	}
	company, err := r.Store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, &NotFoundError{Kind: "company", ID: companyID}
	}
	revs, err := r.Store.ListRevenuePatterns(ctx, companyID)
	if err != nil {
		return nil, err
	}
	exps, err := r.Store.ListExpensePatterns(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, cfg, *company, revs, exps, opts)
}

// Run executes one simulation. Validation errors return before any state
// is created; later failures emit a terminal failed snapshot and return
// a typed error. No partial results are ever returned.
func (r *Runner) Run(
	ctx context.Context,
	cfg models.FiscalConfig,
	company models.Company,
	revs []models.RevenuePattern,
	exps []models.ExpensePattern,
	opts Options,
) (*models.SimulationResults, error) {

	if err := validateInputs(cfg, company, revs, exps); err != nil {
		return nil, err
	}

	simID := opts.SimulationID
	if simID == "" {
		simID = uuid.NewString()
	}
	b := opts.Broadcaster
	log := r.logger().WithFields(logrus.Fields{
		"simulation": simID,
		"company":    company.ID,
		"year":       cfg.Year,
	})

	start := time.Now()
	fail := func(month int, reason string, err error) (*models.SimulationResults, error) {
		if b != nil {
			b.Fail(progress.Snapshot{CurrentMonth: month, Progress: latestProgress(b)}, reason)
		}
		log.WithField("reason", reason).Warn("simulation failed")
		return nil, err
	}

	r.publish(b, progress.Snapshot{Status: progress.StatusRunning, Progress: 10})

	// Expansion: revenue then expense, flattened and date-sorted.
	expander := expand.New(company.HolidayRegion)
	var occurrences []models.Occurrence
	for _, p := range revs {
		occs, err := expander.ExpandRevenue(p, cfg.Year)
		if err != nil {
			return fail(0, err.Error(), err)
		}
		occurrences = append(occurrences, occs...)
	}
	for _, p := range exps {
		occs, err := expander.ExpandExpense(p, cfg.Year)
		if err != nil {
			return fail(0, err.Error(), err)
		}
		occurrences = append(occurrences, occs...)
	}
	for i := range occurrences {
		posting.Build(&occurrences[i])
	}
	expand.SortOccurrences(occurrences)

	// Seed the ledger, then group occurrences by calendar month.
	agg := ledger.New(cfg)
	r.publish(b, progress.Snapshot{Status: progress.StatusRunning, Progress: 20})

	byMonth := make(map[int][]models.Occurrence, 12)
	for _, o := range occurrences {
		m := monthOf(o.Date)
		byMonth[m] = append(byMonth[m], o)
	}

	// Apply postings month by month in fiscal order, streaming partial
	// state after each step. Cancellation is honored at these boundaries
	// only, so posting application stays atomic per occurrence.
	order := dates.FiscalMonthOrder(cfg.FiscalStartMonth)
	for k, m := range order {
		if err := ctx.Err(); err != nil {
			return fail(m, "cancelled", fmt.Errorf("%w: %v", ErrCancelled, err))
		}
		for _, o := range byMonth[m] {
			if err := agg.Apply(o); err != nil {
				return fail(m, err.Error(), err)
			}
		}

		revenueNet := agg.RevenueNet(m)
		expensesSigned := agg.ExpenseNet(m).Neg()
		partial := agg.PartialClosing(m)
		r.publish(b, progress.Snapshot{
			Status:          progress.StatusRunning,
			Progress:        20 + 5*(k+1),
			CurrentMonth:    m,
			PartialBalances: partial,
			Taxes: &progress.TaxEstimates{
				TVA:         partial[models.AccountVAT].Abs(),
				URSSAF:      revenueNet.Mul(urssafRate).Round(2),
				NetCashFlow: revenueNet.Add(expensesSigned),
			},
		})
	}

	agg.RollForward()
	r.publish(b, progress.Snapshot{Status: progress.StatusRunning, Progress: 85})

	monthly := agg.MonthlySummaries()
	r.publish(b, progress.Snapshot{Status: progress.StatusRunning, Progress: 90})

	overall := agg.Overall(monthly)
	r.publish(b, progress.Snapshot{Status: progress.StatusRunning, Progress: 95})

	if err := agg.CheckInvariants(monthly, overall); err != nil {
		return fail(0, err.Error(), err)
	}

	elapsed := time.Since(start)
	results := &models.SimulationResults{
		Year:             cfg.Year,
		FiscalStartMonth: cfg.FiscalStartMonth,
		MonthlyBalances:  agg.Balances(),
		MonthlyTotals:    monthly,
		OverallTotals:    overall,
		Metadata: models.ResultMetadata{
			TotalOccurrences: agg.Occurrences(),
			ProcessingTimeMs: elapsed.Milliseconds(),
			EngineVersion:    EngineVersion,
		},
	}

	if r.Sink != nil {
		if err := r.Sink.SaveResults(ctx, company.ID, results); err != nil {
			log.WithError(err).Warn("result sink rejected write")
		}
	}
	if elapsed > SoftDeadline {
		log.WithField("elapsed", elapsed).Warn("run exceeded soft performance target")
	}

	if b != nil {
		b.Complete(progress.Snapshot{
			Progress:        100,
			CurrentMonth:    order[11],
			PartialBalances: overall.FinalAccountBalances,
		})
	}
	log.WithFields(logrus.Fields{
		"occurrences": results.Metadata.TotalOccurrences,
		"elapsed":     elapsed,
	}).Info("simulation completed")
	return results, nil
}

func (r *Runner) publish(b *progress.Broadcaster, s progress.Snapshot) {
	if b != nil {
		b.Publish(s)
	}
}

func latestProgress(b *progress.Broadcaster) int {
	if s := b.Latest(); s != nil {
		return s.Progress
	}
	return 0
}

func monthOf(iso string) int {
	// Dates are engine-generated, always YYYY-MM-DD.
	return int(iso[5]-'0')*10 + int(iso[6]-'0')
}
