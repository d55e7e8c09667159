package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrAllocationDataInvalid = errors.New("invalid budget allocation")

type BudgetService interface {
	ListTypes(ctx context.Context) ([]BudgetType, error)
	CreateAllocation(ctx context.Context, allocation Allocation) (Allocation, error)
	GetAllocation(ctx context.Context, id int) (Allocation, error)
	ListAllocations(ctx context.Context, filter AllocationFilter) ([]Allocation, error)
	UpdateAllocation(ctx context.Context, allocation Allocation) (Allocation, error)
	DeleteAllocation(ctx context.Context, id int) error
	// AvailableForPeriod returns the client allocations overlapping the period that still have a balance.
	AvailableForPeriod(ctx context.Context, clientId int, periodStart, periodEnd time.Time) ([]Allocation, error)
	CheckAvailability(ctx context.Context, clientId int, amount decimal.Decimal, on time.Time) (Availability, error)
}

type BudgetServiceImpl struct {
	repo BudgetRepo
}

func NewBudgetServiceImpl(repo BudgetRepo) *BudgetServiceImpl {
	return &BudgetServiceImpl{repo: repo}
}

func (s *BudgetServiceImpl) ListTypes(ctx context.Context) ([]BudgetType, error) {
	return s.repo.ListTypes(ctx)
}

func (s *BudgetServiceImpl) CreateAllocation(ctx context.Context, allocation Allocation) (Allocation, error) {
	allocation.UsedAmount = decimal.Zero
	if err := s.validate(ctx, &allocation); err != nil {
		return Allocation{}, err
	}
	return s.repo.CreateAllocation(ctx, allocation)
}

func (s *BudgetServiceImpl) GetAllocation(ctx context.Context, id int) (Allocation, error) {
	return s.repo.GetAllocation(ctx, id)
}

func (s *BudgetServiceImpl) ListAllocations(ctx context.Context, filter AllocationFilter) ([]Allocation, error) {
	return s.repo.ListAllocations(ctx, filter)
}

// UpdateAllocation changes type, total and range. The used amount is only moved by compensation allocation.
func (s *BudgetServiceImpl) UpdateAllocation(ctx context.Context, allocation Allocation) (Allocation, error) {
	existing, err := s.repo.GetAllocation(ctx, allocation.Id)
	if err != nil {
		return Allocation{}, err
	}
	allocation.ClientId = existing.ClientId
	allocation.UsedAmount = existing.UsedAmount
	if err := s.validate(ctx, &allocation); err != nil {
		return Allocation{}, err
	}
	if allocation.TotalAmount.LessThan(existing.UsedAmount) {
		return Allocation{}, fmt.Errorf("%w: total %s is below the used amount %s", ErrAllocationDataInvalid,
			allocation.TotalAmount.StringFixed(2), existing.UsedAmount.StringFixed(2))
	}
	return s.repo.UpdateAllocation(ctx, allocation)
}

func (s *BudgetServiceImpl) DeleteAllocation(ctx context.Context, id int) error {
	existing, err := s.repo.GetAllocation(ctx, id)
	if err != nil {
		return err
	}
	if existing.UsedAmount.IsPositive() {
		return ErrAllocationInUse
	}
	return s.repo.DeleteAllocation(ctx, id)
}

func (s *BudgetServiceImpl) validate(ctx context.Context, allocation *Allocation) error {
	if allocation.ClientId <= 0 {
		return fmt.Errorf("%w: client is required", ErrAllocationDataInvalid)
	}
	if !allocation.TotalAmount.IsPositive() {
		return fmt.Errorf("%w: total amount must be positive", ErrAllocationDataInvalid)
	}
	if allocation.StartDate.IsZero() || allocation.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrAllocationDataInvalid)
	}
	allocation.StartDate = utils.DateOf(allocation.StartDate)
	allocation.EndDate = utils.DateOf(allocation.EndDate)
	if allocation.EndDate.Before(allocation.StartDate) {
		return fmt.Errorf("%w: end date is before start date", ErrAllocationDataInvalid)
	}
	allocation.TotalAmount = allocation.TotalAmount.Round(2)
	if _, err := s.repo.GetType(ctx, allocation.BudgetTypeId); err != nil {
		return err
	}
	return nil
}

func (s *BudgetServiceImpl) AvailableForPeriod(ctx context.Context, clientId int, periodStart, periodEnd time.Time) ([]Allocation, error) {
	all, err := s.repo.ListAllocations(ctx, AllocationFilter{ClientId: clientId, ActiveFrom: periodStart, ActiveTo: periodEnd})
	if err != nil {
		return nil, err
	}
	result := make([]Allocation, 0, len(all))
	for _, a := range all {
		if a.Available().IsPositive() {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *BudgetServiceImpl) CheckAvailability(ctx context.Context, clientId int, amount decimal.Decimal, on time.Time) (Availability, error) {
	if amount.IsNegative() {
		return Availability{}, fmt.Errorf("%w: amount cannot be negative", ErrAllocationDataInvalid)
	}
	day := utils.DateOf(on)
	allocations, err := s.AvailableForPeriod(ctx, clientId, day, day)
	if err != nil {
		return Availability{}, err
	}
	availability := evaluate(clientId, amount, allocations)
	if len(availability.Warnings) > 0 {
		log.Debugf("budget availability of client %d for %s: %d warning(s)", clientId, amount.StringFixed(2),
			len(availability.Warnings))
	}
	return availability, nil
}

func evaluate(clientId int, amount decimal.Decimal, allocations []Allocation) Availability {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Available())
	}
	availability := Availability{
		ClientId:           clientId,
		RequestedAmount:    amount,
		TotalAvailable:     total,
		HasAvailableCredit: total.GreaterThanOrEqual(amount),
		Allocations:        allocations,
		Warnings:           make([]Warning, 0),
	}
	switch {
	case total.IsZero():
		availability.Warnings = append(availability.Warnings, Warning{
			Code:    WarningExhausted,
			Message: "All budgets are exhausted, direct financing is required for the service to continue",
		})
	case total.LessThan(amount):
		availability.Warnings = append(availability.Warnings, Warning{
			Code: WarningInsufficient,
			Message: fmt.Sprintf("Insufficient budget: available %s, requested %s",
				total.StringFixed(2), amount.StringFixed(2)),
		})
	case total.LessThan(amount.Mul(decimal.RequireFromString(approachingMargin))):
		availability.Warnings = append(availability.Warnings, Warning{
			Code:    WarningApproaching,
			Message: "Budget is approaching its limit",
		})
	}
	cutoff := decimal.RequireFromString(highUtilizationCutoff)
	for _, a := range allocations {
		if a.Utilization().GreaterThan(cutoff) {
			availability.Warnings = append(availability.Warnings, Warning{
				Code:         WarningHighUsage,
				Message:      fmt.Sprintf("Budget %s is %s%% utilized", a.BudgetTypeName, a.Utilization().Mul(decimal.NewFromInt(100)).StringFixed(1)),
				AllocationId: a.Id,
			})
		}
	}
	return availability
}
