package allocation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/homecare-coop/backoffice/pkg/budget"
	"github.com/homecare-coop/backoffice/pkg/compensation"
	"github.com/shopspring/decimal"
)

var ErrAllocationDataInvalid = errors.New("invalid allocation request")
var ErrAlreadyAllocated = errors.New("compensation has already been allocated")
var ErrCompensationPaid = errors.New("paid compensations cannot be allocated")
var ErrBudgetExceeded = errors.New("budget exceeded")

// Group is the cost of one client and service type inside a compensation.
type Group struct {
	ClientId    int
	ClientName  string
	ServiceType string
	TimeLogIds  []int
	TotalHours  decimal.Decimal
	TotalCost   decimal.Decimal
	// Options are the client allocations active on the period with a positive balance.
	Options []budget.Allocation
}

func (g Group) key() groupKey {
	return groupKey{g.ClientId, g.ServiceType}
}

type groupKey struct {
	clientId    int
	serviceType string
}

type Availability struct {
	CompensationId    int
	StaffId           int
	StaffName         string
	PeriodStart       time.Time
	PeriodEnd         time.Time
	TotalCompensation decimal.Decimal
	Allocated         bool
	Groups            []Group
}

// Request binds a group to an allocation. A nil Amount allocates as much of the group cost as the balance allows.
type Request struct {
	ClientId     int
	ServiceType  string
	AllocationId int
	Amount       *decimal.Decimal
}

type Approval struct {
	Requests                  []Request
	AcknowledgeBudgetExceeded bool
}

// Plan is a group bound to an allocation. Amount is set once the allocation balance is known.
type Plan struct {
	Group        Group
	AllocationId int
	Desired      *decimal.Decimal
	Amount       decimal.Decimal
}

// Record is the share of one time log charged to a client allocation.
type Record struct {
	Id                 int
	CompensationId     int
	TimeLogId          int
	BudgetAllocationId int
	ClientId           int
	ServiceType        string
	Amount             decimal.Decimal
	Hours              decimal.Decimal
	CreatedAt          time.Time
}

type GroupOutcome struct {
	ClientId     int
	ServiceType  string
	AllocationId int
	TotalCost    decimal.Decimal
	Allocated    decimal.Decimal
	ClientOwes   decimal.Decimal
}

type Result struct {
	CompensationId      int
	TotalCompensation   decimal.Decimal
	TotalAllocated      decimal.Decimal
	RemainingToAllocate decimal.Decimal
	Groups              []GroupOutcome
	Records             []Record
}

// ClientDebt is what one client owes directly for a compensation.
type ClientDebt struct {
	ClientId   int
	ClientName string
	Groups     []GroupOutcome
	TotalOwed  decimal.Decimal
}

// LockedAllocation is the balance of an allocation read under a row lock.
type LockedAllocation struct {
	Id        int
	ClientId  int
	Available decimal.Decimal
	StartDate time.Time
	EndDate   time.Time
}

type Exceeded struct {
	ClientId     int
	ServiceType  string
	AllocationId int
	Requested    decimal.Decimal
	Available    decimal.Decimal
}

// BudgetExceededError lists the groups asking for more than their allocation holds.
type BudgetExceededError struct {
	Groups []Exceeded
}

func (e *BudgetExceededError) Error() string {
	parts := make([]string, 0, len(e.Groups))
	for _, g := range e.Groups {
		parts = append(parts, fmt.Sprintf("client %d %q: requested %s, available %s on allocation %d",
			g.ClientId, g.ServiceType, g.Requested.StringFixed(2), g.Available.StringFixed(2), g.AllocationId))
	}
	return ErrBudgetExceeded.Error() + ": " + strings.Join(parts, "; ")
}

func (e *BudgetExceededError) Is(target error) bool {
	return target == ErrBudgetExceeded
}

// groupLines sums compensation lines per client and service type, ordered by client then service type.
func groupLines(lines []compensation.Line) []Group {
	index := map[groupKey]int{}
	groups := make([]Group, 0)
	for _, l := range lines {
		k := groupKey{l.ClientId, l.ServiceType}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{ClientId: l.ClientId, ServiceType: l.ServiceType,
				TotalHours: decimal.Zero, TotalCost: decimal.Zero})
		}
		groups[i].TimeLogIds = append(groups[i].TimeLogIds, l.TimeLogId)
		groups[i].TotalHours = groups[i].TotalHours.Add(l.Hours)
		groups[i].TotalCost = groups[i].TotalCost.Add(l.Cost)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].ClientId != groups[j].ClientId {
			return groups[i].ClientId < groups[j].ClientId
		}
		return groups[i].ServiceType < groups[j].ServiceType
	})
	return groups
}

// resolve prices every plan against the locked balances. Plans drawing on the same allocation consume it in order.
func resolve(plans []Plan, locked map[int]LockedAllocation, periodStart, periodEnd time.Time, acknowledge bool) ([]Plan, error) {
	remaining := make(map[int]decimal.Decimal, len(locked))
	for id, a := range locked {
		remaining[id] = a.Available
	}
	resolved := make([]Plan, 0, len(plans))
	exceeded := make([]Exceeded, 0)
	for _, p := range plans {
		a, ok := locked[p.AllocationId]
		if !ok {
			return nil, fmt.Errorf("%w: allocation %d", budget.ErrAllocationNotFound, p.AllocationId)
		}
		if a.ClientId != p.Group.ClientId {
			return nil, fmt.Errorf("%w: allocation %d does not belong to client %d", ErrAllocationDataInvalid,
				p.AllocationId, p.Group.ClientId)
		}
		if a.StartDate.After(periodEnd) || a.EndDate.Before(periodStart) {
			return nil, fmt.Errorf("%w: allocation %d is not active in the compensation period", ErrAllocationDataInvalid,
				p.AllocationId)
		}
		balance := remaining[p.AllocationId]
		if p.Desired != nil {
			p.Amount = p.Desired.Round(2)
		} else {
			p.Amount = decimal.Min(p.Group.TotalCost, decimal.Max(balance, decimal.Zero))
		}
		if p.Amount.GreaterThan(balance) {
			exceeded = append(exceeded, Exceeded{
				ClientId:     p.Group.ClientId,
				ServiceType:  p.Group.ServiceType,
				AllocationId: p.AllocationId,
				Requested:    p.Amount,
				Available:    balance,
			})
		}
		remaining[p.AllocationId] = balance.Sub(p.Amount)
		resolved = append(resolved, p)
	}
	if len(exceeded) > 0 && !acknowledge {
		return nil, &BudgetExceededError{Groups: exceeded}
	}
	return resolved, nil
}

// fanOut splits a plan evenly across its time logs. The last log takes the rounding remainder.
func fanOut(compensationId int, p Plan) []Record {
	n := len(p.Group.TimeLogIds)
	if n == 0 || !p.Amount.IsPositive() {
		return nil
	}
	count := decimal.NewFromInt(int64(n))
	amountShare := p.Amount.Div(count).RoundDown(2)
	hoursShare := p.Group.TotalHours.Div(count).RoundDown(2)
	records := make([]Record, 0, n)
	for i, timeLogId := range p.Group.TimeLogIds {
		amount, hours := amountShare, hoursShare
		if i == n-1 {
			rest := decimal.NewFromInt(int64(n - 1))
			amount = p.Amount.Sub(amountShare.Mul(rest))
			hours = p.Group.TotalHours.Sub(hoursShare.Mul(rest))
		}
		records = append(records, Record{
			CompensationId:     compensationId,
			TimeLogId:          timeLogId,
			BudgetAllocationId: p.AllocationId,
			ClientId:           p.Group.ClientId,
			ServiceType:        p.Group.ServiceType,
			Amount:             amount,
			Hours:              hours,
		})
	}
	return records
}

// outcomes compares what was charged to budgets with the cost of every group.
func outcomes(groups []Group, records []Record) []GroupOutcome {
	allocated := map[groupKey]decimal.Decimal{}
	allocationIds := map[groupKey]int{}
	for _, r := range records {
		k := groupKey{r.ClientId, r.ServiceType}
		allocated[k] = allocated[k].Add(r.Amount)
		allocationIds[k] = r.BudgetAllocationId
	}
	result := make([]GroupOutcome, 0, len(groups))
	for _, g := range groups {
		charged := allocated[g.key()]
		owes := g.TotalCost.Sub(charged)
		if owes.IsNegative() {
			owes = decimal.Zero
		}
		result = append(result, GroupOutcome{
			ClientId:     g.ClientId,
			ServiceType:  g.ServiceType,
			AllocationId: allocationIds[g.key()],
			TotalCost:    g.TotalCost,
			Allocated:    charged,
			ClientOwes:   owes,
		})
	}
	return result
}
