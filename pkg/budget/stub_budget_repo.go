package budget

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

type StubBudgetRepo struct {
	nextId      int
	types       map[int]BudgetType
	allocations map[int]Allocation
}

func NewStubBudgetRepo() *StubBudgetRepo {
	s := &StubBudgetRepo{}
	s.Cleanup()
	return s
}

func seededTypes() map[int]BudgetType {
	return map[int]BudgetType{
		1: {Id: 1, Code: "HCPQ", Name: "Personal Care Services", DefaultWeekdayRate: decimal.NewFromInt(23),
			DefaultHolidayRate: decimal.NewFromInt(25), DefaultKilometerRate: decimal.RequireFromString("0.60"),
			CanFundMileage: true, DisplayOrder: 1},
		2: {Id: 2, Code: "HCPB", Name: "Home Support Services", DefaultWeekdayRate: decimal.NewFromInt(20),
			DefaultHolidayRate: decimal.NewFromInt(22), DefaultKilometerRate: decimal.RequireFromString("0.60"),
			CanFundMileage: true, DisplayOrder: 2},
	}
}

func (s *StubBudgetRepo) ListTypes(ctx context.Context) ([]BudgetType, error) {
	types := make([]BudgetType, 0, len(s.types))
	for _, t := range s.types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].DisplayOrder < types[j].DisplayOrder })
	return types, nil
}

func (s *StubBudgetRepo) GetType(ctx context.Context, id int) (BudgetType, error) {
	t, ok := s.types[id]
	if !ok {
		return BudgetType{}, ErrBudgetTypeNotFound
	}
	return t, nil
}

func (s *StubBudgetRepo) CreateAllocation(ctx context.Context, allocation Allocation) (Allocation, error) {
	s.nextId++
	allocation.Id = s.nextId
	t := s.types[allocation.BudgetTypeId]
	allocation.BudgetTypeCode = t.Code
	allocation.BudgetTypeName = t.Name
	s.allocations[allocation.Id] = allocation
	return allocation, nil
}

func (s *StubBudgetRepo) GetAllocation(ctx context.Context, id int) (Allocation, error) {
	a, ok := s.allocations[id]
	if !ok {
		return Allocation{}, ErrAllocationNotFound
	}
	return a, nil
}

func (s *StubBudgetRepo) ListAllocations(ctx context.Context, filter AllocationFilter) ([]Allocation, error) {
	result := make([]Allocation, 0)
	for _, a := range s.allocations {
		if filter.ClientId != 0 && a.ClientId != filter.ClientId {
			continue
		}
		if !filter.ActiveFrom.IsZero() && a.EndDate.Before(filter.ActiveFrom) {
			continue
		}
		if !filter.ActiveTo.IsZero() && a.StartDate.After(filter.ActiveTo) {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (s *StubBudgetRepo) UpdateAllocation(ctx context.Context, allocation Allocation) (Allocation, error) {
	if _, ok := s.allocations[allocation.Id]; !ok {
		return Allocation{}, ErrAllocationNotFound
	}
	t := s.types[allocation.BudgetTypeId]
	allocation.BudgetTypeCode = t.Code
	allocation.BudgetTypeName = t.Name
	s.allocations[allocation.Id] = allocation
	return allocation, nil
}

func (s *StubBudgetRepo) DeleteAllocation(ctx context.Context, id int) error {
	if _, ok := s.allocations[id]; !ok {
		return ErrAllocationNotFound
	}
	delete(s.allocations, id)
	return nil
}

// SetUsed simulates compensation allocation consuming part of an allocation.
func (s *StubBudgetRepo) SetUsed(id int, used decimal.Decimal) {
	a := s.allocations[id]
	a.UsedAmount = used
	s.allocations[id] = a
}

func (s *StubBudgetRepo) Cleanup() {
	s.nextId = 0
	s.types = seededTypes()
	s.allocations = map[int]Allocation{}
}
