package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/homecare-coop/backoffice/internal/event_bus"
	"github.com/homecare-coop/backoffice/pkg/budget"
	"github.com/homecare-coop/backoffice/pkg/client"
	"github.com/homecare-coop/backoffice/pkg/compensation"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type CompensationReader interface {
	Get(ctx context.Context, id int) (compensation.Compensation, error)
}

type BudgetReader interface {
	AvailableForPeriod(ctx context.Context, clientId int, periodStart, periodEnd time.Time) ([]budget.Allocation, error)
}

type ClientReader interface {
	Get(ctx context.Context, id int) (client.Client, error)
}

type Service interface {
	// Availability groups the compensation cost per client and service type next to the budgets that can cover it.
	Availability(ctx context.Context, compensationId int) (Availability, error)
	Approve(ctx context.Context, compensationId int, approval Approval) (Result, error)
	Allocations(ctx context.Context, compensationId int) (Result, error)
	// ClientDebts lists the clients owing part of the compensation directly.
	ClientDebts(ctx context.Context, compensationId int) ([]ClientDebt, error)
}

type ServiceImpl struct {
	repo          Repository
	compensations CompensationReader
	budgets       BudgetReader
	clients       ClientReader
	eventBus      *event_bus.EventBus
}

func NewService(repo Repository, compensations CompensationReader, budgets BudgetReader, clients ClientReader,
	eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:          repo,
		compensations: compensations,
		budgets:       budgets,
		clients:       clients,
		eventBus:      eventBus,
	}
}

func (s *ServiceImpl) Availability(ctx context.Context, compensationId int) (Availability, error) {
	comp, err := s.compensations.Get(ctx, compensationId)
	if err != nil {
		return Availability{}, err
	}
	records, err := s.repo.ListByCompensation(ctx, compensationId)
	if err != nil {
		return Availability{}, err
	}
	names := s.nameLookup()
	groups := groupLines(comp.Lines)
	for i := range groups {
		if groups[i].ClientName, err = names(ctx, groups[i].ClientId); err != nil {
			return Availability{}, err
		}
		groups[i].Options, err = s.budgets.AvailableForPeriod(ctx, groups[i].ClientId, comp.PeriodStart, comp.PeriodEnd)
		if err != nil {
			return Availability{}, err
		}
	}
	return Availability{
		CompensationId:    comp.Id,
		StaffId:           comp.StaffId,
		StaffName:         comp.StaffName,
		PeriodStart:       comp.PeriodStart,
		PeriodEnd:         comp.PeriodEnd,
		TotalCompensation: comp.TotalCompensation,
		Allocated:         comp.AllocatedAt != nil || len(records) > 0,
		Groups:            groups,
	}, nil
}

func (s *ServiceImpl) Approve(ctx context.Context, compensationId int, approval Approval) (Result, error) {
	comp, err := s.compensations.Get(ctx, compensationId)
	if err != nil {
		return Result{}, err
	}
	if comp.Status == compensation.StatusPaid {
		return Result{}, ErrCompensationPaid
	}
	if comp.AllocatedAt != nil {
		return Result{}, ErrAlreadyAllocated
	}
	groups := groupLines(comp.Lines)
	plans, err := plan(groups, approval.Requests)
	if err != nil {
		return Result{}, err
	}
	records, err := s.repo.Approve(ctx, comp, plans, approval.AcknowledgeBudgetExceeded)
	if err != nil {
		return Result{}, err
	}
	result := summarize(comp, groups, records)

	owing := map[int]bool{}
	for _, g := range result.Groups {
		if g.ClientOwes.IsPositive() {
			owing[g.ClientId] = true
		}
	}
	log.Infof("compensation %d allocated: %s charged to budgets, %s remaining", comp.Id,
		result.TotalAllocated.StringFixed(2), result.RemainingToAllocate.StringFixed(2))
	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.CompensationAllocatedType, event_bus.CompensationAllocated{
		CompensationId:      comp.Id,
		StaffId:             comp.StaffId,
		Allocated:           result.TotalAllocated,
		RemainingToAllocate: result.RemainingToAllocate,
		ClientsOwing:        len(owing),
	}))
	if err != nil {
		log.Warnf("compensation %d allocated but event handling failed: %v", comp.Id, err)
	}
	return result, nil
}

// plan matches each request to its group and checks it before any balance is touched.
func plan(groups []Group, requests []Request) ([]Plan, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: at least one group must be allocated", ErrAllocationDataInvalid)
	}
	byKey := make(map[groupKey]Group, len(groups))
	for _, g := range groups {
		byKey[g.key()] = g
	}
	seen := map[groupKey]bool{}
	plans := make([]Plan, 0, len(requests))
	for _, req := range requests {
		k := groupKey{req.ClientId, req.ServiceType}
		g, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("%w: no services for client %d and service type %q", ErrAllocationDataInvalid,
				req.ClientId, req.ServiceType)
		}
		if seen[k] {
			return nil, fmt.Errorf("%w: client %d and service type %q requested twice", ErrAllocationDataInvalid,
				req.ClientId, req.ServiceType)
		}
		seen[k] = true
		if req.AllocationId <= 0 {
			return nil, fmt.Errorf("%w: allocation is required for client %d", ErrAllocationDataInvalid, req.ClientId)
		}
		if req.Amount != nil {
			if req.Amount.IsNegative() {
				return nil, fmt.Errorf("%w: amount cannot be negative", ErrAllocationDataInvalid)
			}
			if req.Amount.GreaterThan(g.TotalCost) {
				return nil, fmt.Errorf("%w: amount %s exceeds the group cost %s", ErrAllocationDataInvalid,
					req.Amount.StringFixed(2), g.TotalCost.StringFixed(2))
			}
		}
		plans = append(plans, Plan{Group: g, AllocationId: req.AllocationId, Desired: req.Amount})
	}
	return plans, nil
}

func summarize(comp compensation.Compensation, groups []Group, records []Record) Result {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return Result{
		CompensationId:      comp.Id,
		TotalCompensation:   comp.TotalCompensation,
		TotalAllocated:      total,
		RemainingToAllocate: comp.TotalCompensation.Sub(total),
		Groups:              outcomes(groups, records),
		Records:             records,
	}
}

func (s *ServiceImpl) Allocations(ctx context.Context, compensationId int) (Result, error) {
	comp, err := s.compensations.Get(ctx, compensationId)
	if err != nil {
		return Result{}, err
	}
	records, err := s.repo.ListByCompensation(ctx, compensationId)
	if err != nil {
		return Result{}, err
	}
	return summarize(comp, groupLines(comp.Lines), records), nil
}

func (s *ServiceImpl) ClientDebts(ctx context.Context, compensationId int) ([]ClientDebt, error) {
	result, err := s.Allocations(ctx, compensationId)
	if err != nil {
		return nil, err
	}
	names := s.nameLookup()
	debts := make([]ClientDebt, 0)
	index := map[int]int{}
	for _, g := range result.Groups {
		if !g.ClientOwes.IsPositive() {
			continue
		}
		i, ok := index[g.ClientId]
		if !ok {
			name, err := names(ctx, g.ClientId)
			if err != nil {
				return nil, err
			}
			i = len(debts)
			index[g.ClientId] = i
			debts = append(debts, ClientDebt{ClientId: g.ClientId, ClientName: name, TotalOwed: decimal.Zero})
		}
		debts[i].Groups = append(debts[i].Groups, g)
		debts[i].TotalOwed = debts[i].TotalOwed.Add(g.ClientOwes)
	}
	return debts, nil
}

func (s *ServiceImpl) nameLookup() func(ctx context.Context, clientId int) (string, error) {
	cache := map[int]string{}
	return func(ctx context.Context, clientId int) (string, error) {
		if name, ok := cache[clientId]; ok {
			return name, nil
		}
		c, err := s.clients.Get(ctx, clientId)
		if err != nil {
			return "", err
		}
		cache[clientId] = c.FullName()
		return cache[clientId], nil
	}
}
