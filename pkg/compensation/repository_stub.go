package compensation

import (
	"context"
	"sort"
	"time"
)

type RepositoryStub struct {
	nextId        int
	nextLineId    int
	compensations map[int]Compensation
	// Allocated marks compensations HasAllocations reports as allocated.
	Allocated map[int]bool
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{compensations: map[int]Compensation{}, Allocated: map[int]bool{}}
}

func (s *RepositoryStub) Create(ctx context.Context, comp Compensation) (Compensation, error) {
	for _, existing := range s.compensations {
		if existing.StaffId == comp.StaffId && existing.PeriodStart.Equal(comp.PeriodStart) && existing.PeriodEnd.Equal(comp.PeriodEnd) {
			return Compensation{}, ErrCompensationExists
		}
	}
	s.nextId++
	comp.Id = s.nextId
	comp.Status = StatusApproved
	lines := make([]Line, len(comp.Lines))
	for i, l := range comp.Lines {
		s.nextLineId++
		l.Id = s.nextLineId
		lines[i] = l
	}
	comp.Lines = lines
	s.compensations[comp.Id] = comp
	return comp, nil
}

func (s *RepositoryStub) Get(ctx context.Context, id int) (Compensation, error) {
	comp, ok := s.compensations[id]
	if !ok {
		return Compensation{}, ErrCompensationNotFound
	}
	return comp, nil
}

func (s *RepositoryStub) List(ctx context.Context, filter Filter) ([]Compensation, error) {
	result := make([]Compensation, 0)
	for _, c := range s.compensations {
		if filter.StaffId != 0 && c.StaffId != filter.StaffId {
			continue
		}
		if !filter.From.IsZero() && c.PeriodEnd.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && c.PeriodStart.After(filter.To) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		c.Lines = nil
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, id int) error {
	if _, ok := s.compensations[id]; !ok {
		return ErrCompensationNotFound
	}
	delete(s.compensations, id)
	return nil
}

func (s *RepositoryStub) MarkPaid(ctx context.Context, id int, paidAt time.Time) (Compensation, error) {
	comp, ok := s.compensations[id]
	if !ok {
		return Compensation{}, ErrCompensationNotFound
	}
	if comp.Status == StatusPaid {
		return Compensation{}, ErrAlreadyPaid
	}
	comp.Status = StatusPaid
	comp.PaidAt = &paidAt
	s.compensations[id] = comp
	return comp, nil
}

func (s *RepositoryStub) HasAllocations(ctx context.Context, id int) (bool, error) {
	return s.Allocated[id], nil
}

func (s *RepositoryStub) CompensatedTimeLogs(ctx context.Context, timeLogIds []int) ([]int, error) {
	wanted := map[int]bool{}
	for _, id := range timeLogIds {
		wanted[id] = true
	}
	found := map[int]bool{}
	for _, c := range s.compensations {
		for _, l := range c.Lines {
			if wanted[l.TimeLogId] {
				found[l.TimeLogId] = true
			}
		}
	}
	ids := make([]int, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *RepositoryStub) Cleanup() {
	s.nextId = 0
	s.nextLineId = 0
	s.compensations = map[int]Compensation{}
	s.Allocated = map[int]bool{}
}
