package stats

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StubStatsRepo answers from fixed values. ServiceTotals returns Totals whatever the range.
type StubStatsRepo struct {
	ActiveClients int
	ActiveStaff   int
	Totals        []ServiceTotal
	Cost          decimal.Decimal
	Usage         BudgetUsage

	LastFrom time.Time
	LastTo   time.Time
	LastDay  time.Time
}

func NewStubStatsRepo() *StubStatsRepo {
	return &StubStatsRepo{}
}

func (s *StubStatsRepo) CountActiveClients(ctx context.Context) (int, error) {
	return s.ActiveClients, nil
}

func (s *StubStatsRepo) CountActiveStaff(ctx context.Context) (int, error) {
	return s.ActiveStaff, nil
}

func (s *StubStatsRepo) ServiceTotals(ctx context.Context, from, to time.Time) ([]ServiceTotal, error) {
	s.LastFrom, s.LastTo = from, to
	return s.Totals, nil
}

func (s *StubStatsRepo) CompensationCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return s.Cost, nil
}

func (s *StubStatsRepo) BudgetUsage(ctx context.Context, day time.Time) (BudgetUsage, error) {
	s.LastDay = day
	return s.Usage, nil
}

func (s *StubStatsRepo) Cleanup() {
	*s = StubStatsRepo{}
}
