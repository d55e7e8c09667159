package stats

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dashboard holds the headline figures of the current month.
type Dashboard struct {
	ActiveClients int
	ActiveStaff   int
	MonthStart    time.Time
	MonthHours    decimal.Decimal
	MonthServices int
	// MonthCost is the cost of compensation lines dated in the month.
	MonthCost   decimal.Decimal
	Allocations int
	BudgetTotal decimal.Decimal
	BudgetUsed  decimal.Decimal
	// BudgetUtilization is BudgetUsed as a percentage of BudgetTotal.
	BudgetUtilization float64
}

// ServiceTotal is one month and service type aggregate of time logs.
type ServiceTotal struct {
	Month       time.Month
	ServiceType string
	Services    int
	Hours       decimal.Decimal
	Mileage     decimal.Decimal
}

type ServiceTypeStats struct {
	ServiceType string
	Services    int
	Hours       decimal.Decimal
	Mileage     decimal.Decimal
}

type MonthlyStats struct {
	Month    time.Month
	Services int
	Hours    decimal.Decimal
	Mileage  decimal.Decimal
	ByType   []ServiceTypeStats
}

func (s ServiceTypeStats) add(t ServiceTotal) ServiceTypeStats {
	s.Services += t.Services
	s.Hours = s.Hours.Add(t.Hours)
	s.Mileage = s.Mileage.Add(t.Mileage)
	return s
}

type YearStats struct {
	Year     int
	Months   []MonthlyStats
	ByType   []ServiceTypeStats
	Services int
	Hours    decimal.Decimal
	Mileage  decimal.Decimal
}

// BudgetUsage is the sum of the allocations active on a day.
type BudgetUsage struct {
	Allocations int
	Total       decimal.Decimal
	Used        decimal.Decimal
}
