package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fiscalsim/pkg/models"
)

// PatternRepo reads companies and their recurring patterns from
// postgres. Patterns are stored as one JSONB document per row:
//
//	CREATE TABLE IF NOT EXISTS companies (
//	  id TEXT PRIMARY KEY,
//	  company_json JSONB NOT NULL
//	);
//	CREATE TABLE IF NOT EXISTS revenue_patterns (
//	  id TEXT PRIMARY KEY,
//	  company_id TEXT NOT NULL REFERENCES companies(id),
//	  pattern_json JSONB NOT NULL
//	);
//	CREATE TABLE IF NOT EXISTS expense_patterns (
//	  id TEXT PRIMARY KEY,
//	  company_id TEXT NOT NULL REFERENCES companies(id),
//	  pattern_json JSONB NOT NULL
//	);
type PatternRepo struct{}

// NewPatternRepo creates a repository instance.
func NewPatternRepo() *PatternRepo {
	return &PatternRepo{}
}

// GetCompany loads one company; nil when the id is unknown.
func (r *PatternRepo) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var raw []byte
	err := pool.QueryRow(ctx, `SELECT company_json FROM companies WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load company %s: %w", id, err)
	}

	var company models.Company
	if err := json.Unmarshal(raw, &company); err != nil {
		return nil, fmt.Errorf("failed to unmarshal company %s: %w", id, err)
	}
	return &company, nil
}

// ListRevenuePatterns returns the revenue patterns of a company, ordered
// by id for determinism.
func (r *PatternRepo) ListRevenuePatterns(ctx context.Context, companyID string) ([]models.RevenuePattern, error) {
	rows, err := queryPatternRows(ctx, "revenue_patterns", companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RevenuePattern
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan revenue pattern: %w", err)
		}
		var p models.RevenuePattern
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal revenue pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListExpensePatterns returns the expense patterns of a company, ordered
// by id for determinism.
func (r *PatternRepo) ListExpensePatterns(ctx context.Context, companyID string) ([]models.ExpensePattern, error) {
	rows, err := queryPatternRows(ctx, "expense_patterns", companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ExpensePattern
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan expense pattern: %w", err)
		}
		var p models.ExpensePattern
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal expense pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func queryPatternRows(ctx context.Context, table, companyID string) (pgx.Rows, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	query := fmt.Sprintf(`SELECT pattern_json FROM %s WHERE company_id = $1 ORDER BY id`, table)
	rows, err := pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return rows, nil
}
