package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetType is a funding programme a client budget can come from. The seeded list is read-only.
type BudgetType struct {
	Id                   int
	Code                 string
	Name                 string
	Description          string
	DefaultWeekdayRate   decimal.Decimal
	DefaultHolidayRate   decimal.Decimal
	DefaultKilometerRate decimal.Decimal
	CanFundMileage       bool
	DisplayOrder         int
}

// Allocation is an amount granted to a client under a budget type for a date range.
type Allocation struct {
	Id             int
	ClientId       int
	BudgetTypeId   int
	BudgetTypeCode string
	BudgetTypeName string
	TotalAmount    decimal.Decimal
	UsedAmount     decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	CreatedAt      time.Time
}

func (a Allocation) Available() decimal.Decimal {
	return a.TotalAmount.Sub(a.UsedAmount)
}

// Utilization is UsedAmount as a fraction of TotalAmount, zero for an empty allocation.
func (a Allocation) Utilization() decimal.Decimal {
	if a.TotalAmount.IsZero() {
		return decimal.Zero
	}
	return a.UsedAmount.Div(a.TotalAmount)
}

// IsActiveBetween reports whether the allocation range overlaps [startDate, endDate].
func (a Allocation) IsActiveBetween(startDate, endDate time.Time) bool {
	return !a.StartDate.After(endDate) && !a.EndDate.Before(startDate)
}

type AllocationFilter struct {
	ClientId int
	// ActiveFrom and ActiveTo keep allocations overlapping the range when set.
	ActiveFrom time.Time
	ActiveTo   time.Time
}

type WarningCode string

const (
	WarningExhausted      WarningCode = "exhausted"
	WarningInsufficient   WarningCode = "insufficient"
	WarningApproaching    WarningCode = "approaching_limit"
	WarningHighUsage      WarningCode = "high_utilization"
	approachingMargin                 = "1.1"
	highUtilizationCutoff             = "0.9"
)

type Warning struct {
	Code         WarningCode
	Message      string
	AllocationId int
}

type Availability struct {
	ClientId           int
	RequestedAmount    decimal.Decimal
	TotalAvailable     decimal.Decimal
	HasAvailableCredit bool
	Allocations        []Allocation
	Warnings           []Warning
}
