package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"fiscalsim/pkg/models"
)

// ResultsRepo persists finished simulation results, one JSONB blob per
// company, upserted on company id:
//
//	CREATE TABLE IF NOT EXISTS simulation_results (
//	  company_id TEXT PRIMARY KEY,
//	  results_json JSONB NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL
//	);
type ResultsRepo struct{}

// NewResultsRepo creates a repository instance.
func NewResultsRepo() *ResultsRepo {
	return &ResultsRepo{}
}

// SaveResults upserts the latest results of a company.
func (r *ResultsRepo) SaveResults(ctx context.Context, companyID string, res *models.SimulationResults) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	query := `
		INSERT INTO simulation_results (company_id, results_json, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id)
		DO UPDATE SET
			results_json = EXCLUDED.results_json,
			updated_at = EXCLUDED.updated_at;
	`
	if _, err := pool.Exec(ctx, query, companyID, jsonData, time.Now()); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	return nil
}

// LoadResults retrieves the latest persisted results of a company.
func (r *ResultsRepo) LoadResults(ctx context.Context, companyID string) (*models.SimulationResults, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var jsonData []byte
	err := pool.QueryRow(ctx, `SELECT results_json FROM simulation_results WHERE company_id = $1`, companyID).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no results found for company %s", companyID)
		}
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	var res models.SimulationResults
	if err := json.Unmarshal(jsonData, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	return &res, nil
}
