package allocation

import (
	"context"
	"time"

	"github.com/homecare-coop/backoffice/pkg/compensation"
)

type RepositoryStub struct {
	nextId    int
	records   map[int][]Record
	allocated map[int]bool
	// Balances plays the client_budget_allocations table. Approve charges it like the real repository.
	Balances map[int]LockedAllocation
}

func NewRepositoryStub() *RepositoryStub {
	s := &RepositoryStub{}
	s.Cleanup()
	return s
}

func (s *RepositoryStub) Approve(ctx context.Context, comp compensation.Compensation, plans []Plan, acknowledge bool) ([]Record, error) {
	if comp.Status == compensation.StatusPaid {
		return nil, ErrCompensationPaid
	}
	if s.allocated[comp.Id] {
		return nil, ErrAlreadyAllocated
	}
	resolved, err := resolve(plans, s.Balances, comp.PeriodStart, comp.PeriodEnd, acknowledge)
	if err != nil {
		return nil, err
	}
	stored := make([]Record, 0)
	for _, p := range resolved {
		a := s.Balances[p.AllocationId]
		a.Available = a.Available.Sub(p.Amount)
		s.Balances[p.AllocationId] = a
		for _, rec := range fanOut(comp.Id, p) {
			s.nextId++
			rec.Id = s.nextId
			rec.CreatedAt = time.Now()
			stored = append(stored, rec)
		}
	}
	s.records[comp.Id] = stored
	s.allocated[comp.Id] = true
	return stored, nil
}

func (s *RepositoryStub) ListByCompensation(ctx context.Context, compensationId int) ([]Record, error) {
	records := s.records[compensationId]
	if records == nil {
		return []Record{}, nil
	}
	return records, nil
}

// SetBalance registers an allocation balance for the client.
func (s *RepositoryStub) SetBalance(a LockedAllocation) {
	s.Balances[a.Id] = a
}

func (s *RepositoryStub) Cleanup() {
	s.nextId = 0
	s.records = map[int][]Record{}
	s.allocated = map[int]bool{}
	s.Balances = map[int]LockedAllocation{}
}
