package stats

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidYear = errors.New("invalid year")

// UnspecifiedServiceType labels time logs recorded without a service type.
const UnspecifiedServiceType = "unspecified"

type StatsService interface {
	Dashboard(ctx context.Context) (Dashboard, error)
	// MonthlyStats returns the twelve months of a year. A zero year means the current one.
	MonthlyStats(ctx context.Context, year int) (YearStats, error)
}

type StatsServiceImpl struct {
	repo     StatsRepo
	location *time.Location
	clock    utils.Clock
}

func NewStatsServiceImpl(repo StatsRepo, location *time.Location) *StatsServiceImpl {
	return &StatsServiceImpl{
		repo:     repo,
		location: location,
		clock:    &utils.SystemClock{},
	}
}

func (s *StatsServiceImpl) Dashboard(ctx context.Context) (Dashboard, error) {
	now := s.clock.Now().In(s.location)
	from := utils.MonthStart(now.Year(), now.Month())
	to := from.AddDate(0, 1, 0)

	activeClients, err := s.repo.CountActiveClients(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	activeStaff, err := s.repo.CountActiveStaff(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	totals, err := s.repo.ServiceTotals(ctx, from, to)
	if err != nil {
		return Dashboard{}, err
	}
	cost, err := s.repo.CompensationCost(ctx, from, to)
	if err != nil {
		return Dashboard{}, err
	}
	usage, err := s.repo.BudgetUsage(ctx, utils.DateOf(now))
	if err != nil {
		return Dashboard{}, err
	}

	dashboard := Dashboard{
		ActiveClients: activeClients,
		ActiveStaff:   activeStaff,
		MonthStart:    from,
		MonthHours:    decimal.Zero,
		MonthCost:     cost,
		Allocations:   usage.Allocations,
		BudgetTotal:   usage.Total,
		BudgetUsed:    usage.Used,
	}
	for _, t := range totals {
		dashboard.MonthHours = dashboard.MonthHours.Add(t.Hours)
		dashboard.MonthServices += t.Services
	}
	if usage.Total.IsPositive() {
		dashboard.BudgetUtilization = usage.Used.Div(usage.Total).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	log.Debugf("Dashboard for %s: %d services, %s hours", from.Format("2006-01"), dashboard.MonthServices,
		dashboard.MonthHours.StringFixed(2))
	return dashboard, nil
}

func (s *StatsServiceImpl) MonthlyStats(ctx context.Context, year int) (YearStats, error) {
	if year == 0 {
		year = s.clock.Now().In(s.location).Year()
	}
	if year < 1900 {
		return YearStats{}, ErrInvalidYear
	}
	totals, err := s.repo.ServiceTotals(ctx, utils.MonthStart(year, time.January), utils.MonthStart(year+1, time.January))
	if err != nil {
		return YearStats{}, err
	}

	result := YearStats{Year: year, Months: make([]MonthlyStats, 12), Hours: decimal.Zero, Mileage: decimal.Zero}
	byMonthType := make([]map[string]ServiceTypeStats, 12)
	yearByType := map[string]ServiceTypeStats{}
	for i := range result.Months {
		result.Months[i] = MonthlyStats{Month: time.Month(i + 1), Hours: decimal.Zero, Mileage: decimal.Zero}
		byMonthType[i] = map[string]ServiceTypeStats{}
	}

	for _, t := range totals {
		if t.Month < time.January || t.Month > time.December {
			log.Warnf("ignoring service totals for month %d", t.Month)
			continue
		}
		if t.ServiceType == "" {
			t.ServiceType = UnspecifiedServiceType
		}
		m := &result.Months[t.Month-1]
		m.Services += t.Services
		m.Hours = m.Hours.Add(t.Hours)
		m.Mileage = m.Mileage.Add(t.Mileage)
		byMonthType[t.Month-1][t.ServiceType] = byMonthType[t.Month-1][t.ServiceType].add(t)
		yearByType[t.ServiceType] = yearByType[t.ServiceType].add(t)

		result.Services += t.Services
		result.Hours = result.Hours.Add(t.Hours)
		result.Mileage = result.Mileage.Add(t.Mileage)
	}

	for i := range result.Months {
		result.Months[i].ByType = sortedTypes(byMonthType[i])
	}
	result.ByType = sortedTypes(yearByType)
	return result, nil
}

func sortedTypes(byType map[string]ServiceTypeStats) []ServiceTypeStats {
	result := make([]ServiceTypeStats, 0, len(byType))
	for name, stats := range byType {
		stats.ServiceType = name
		result = append(result, stats)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ServiceType < result[j].ServiceType
	})
	return result
}
