// Command simulate runs one simulation from a json scenario file and
// prints the monthly and overall summaries.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fiscalsim/pkg/core/engine"
	"fiscalsim/pkg/core/progress"
	"fiscalsim/pkg/models"
)

// Scenario is the fixture format consumed by the CLI. It mirrors the
// body of POST /api/simulations/run.
type Scenario struct {
	Config          models.FiscalConfig     `json:"config"`
	Company         models.Company          `json:"company"`
	RevenuePatterns []models.RevenuePattern `json:"revenuePatterns"`
	ExpensePatterns []models.ExpensePattern `json:"expensePatterns"`
}

func main() {
	godotenv.Load()

	scenarioPath := flag.String("scenario", "scenario.json", "path to the json scenario file")
	verbose := flag.Bool("v", false, "stream progress snapshots to stderr")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)

	data, err := os.ReadFile(*scenarioPath)
	if err != nil {
		log.WithError(err).Fatal("cannot read scenario")
	}
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		log.WithError(err).Fatal("cannot parse scenario")
	}

	b := progress.NewBroadcaster("cli", 0)
	done := make(chan struct{})
	if *verbose {
		events, cancel := b.Subscribe()
		defer cancel()
		go func() {
			defer close(done)
			for ev := range events {
				if ev.Data == nil {
					continue
				}
				fmt.Fprintf(os.Stderr, "progress %3d%% status=%s month=%d\n",
					ev.Data.Progress, ev.Data.Status, ev.Data.CurrentMonth)
			}
		}()
	} else {
		close(done)
	}

	runner := engine.NewRunner(nil, nil, log)
	results, err := runner.Run(context.Background(), sc.Config, sc.Company,
		sc.RevenuePatterns, sc.ExpensePatterns,
		engine.Options{Broadcaster: b})
	<-done
	if err != nil {
		log.WithError(err).Fatal("simulation failed")
	}

	printResults(results)
}

func printResults(res *models.SimulationResults) {
	fmt.Printf("Simulation %d (fiscal start month %d)\n", res.Year, res.FiscalStartMonth)
	fmt.Printf("%-28s %12s %12s %12s %12s\n", "Month", "Revenue", "Expenses", "Profit", "VAT pos")
	for _, m := range res.MonthlyTotals {
		fmt.Printf("%-28s %12s %12s %12s %12s\n",
			m.Label, m.Revenue.Net, m.Expenses.Net, m.NetProfit, m.NetVATPosition)
	}

	o := res.OverallTotals
	fmt.Println()
	fmt.Printf("Total revenue (net):    %s\n", o.TotalRevenue.Net)
	fmt.Printf("Total expenses (net):   %s\n", o.TotalExpenses.Net)
	fmt.Printf("Net profit:             %s\n", o.NetProfit)
	fmt.Printf("VAT collected:          %s\n", o.TotalVATCollected)
	fmt.Printf("VAT deductible:         %s\n", o.TotalVATDeductible)
	fmt.Printf("Net VAT owed:           %s\n", o.NetVATOwed)
	fmt.Println("\nFinal balances:")
	for _, acct := range models.AccountOrder {
		fmt.Printf("  %-10s %12s\n", acct, o.FinalAccountBalances[acct])
	}
	fmt.Printf("\n%d occurrences in %dms (engine %s)\n",
		res.Metadata.TotalOccurrences, res.Metadata.ProcessingTimeMs, res.Metadata.EngineVersion)
}
