package store

import (
	"context"
	"sync"

	"fiscalsim/pkg/models"
)

// MemoryStore is an in-memory pattern store and result sink, used by the
// CLI and by tests to inject fixtures without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[string]models.Company
	revenues  map[string][]models.RevenuePattern
	expenses  map[string][]models.ExpensePattern
	results   map[string]*models.SimulationResults
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies: make(map[string]models.Company),
		revenues:  make(map[string][]models.RevenuePattern),
		expenses:  make(map[string][]models.ExpensePattern),
		results:   make(map[string]*models.SimulationResults),
	}
}

// PutCompany registers a company fixture.
func (s *MemoryStore) PutCompany(c models.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = c
}

// PutRevenuePattern appends a revenue pattern for a company.
func (s *MemoryStore) PutRevenuePattern(companyID string, p models.RevenuePattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revenues[companyID] = append(s.revenues[companyID], p)
}

// PutExpensePattern appends an expense pattern for a company.
func (s *MemoryStore) PutExpensePattern(companyID string, p models.ExpensePattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[companyID] = append(s.expenses[companyID], p)
}

// GetCompany returns the company or nil when unknown.
func (s *MemoryStore) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// ListRevenuePatterns returns a copy of the company's revenue patterns.
func (s *MemoryStore) ListRevenuePatterns(ctx context.Context, companyID string) ([]models.RevenuePattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.RevenuePattern(nil), s.revenues[companyID]...), nil
}

// ListExpensePatterns returns a copy of the company's expense patterns.
func (s *MemoryStore) ListExpensePatterns(ctx context.Context, companyID string) ([]models.ExpensePattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ExpensePattern(nil), s.expenses[companyID]...), nil
}

// SaveResults stores the latest results for a company.
func (s *MemoryStore) SaveResults(ctx context.Context, companyID string, res *models.SimulationResults) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[companyID] = res
	return nil
}

// LoadResults returns the stored results, nil when absent.
func (s *MemoryStore) LoadResults(companyID string) *models.SimulationResults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[companyID]
}
