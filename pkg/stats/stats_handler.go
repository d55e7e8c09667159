package stats

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/homecare-coop/backoffice/internal/rest"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type DashboardDTO struct {
	ActiveClients     int             `json:"activeClients"`
	ActiveStaff       int             `json:"activeStaff"`
	Month             string          `json:"month"`
	MonthHours        decimal.Decimal `json:"monthHours"`
	MonthServices     int             `json:"monthServices"`
	MonthCost         decimal.Decimal `json:"monthCost"`
	Allocations       int             `json:"allocations"`
	BudgetTotal       decimal.Decimal `json:"budgetTotal"`
	BudgetUsed        decimal.Decimal `json:"budgetUsed"`
	BudgetUtilization float64         `json:"budgetUtilization"`
}

type ServiceTypeStatsDTO struct {
	ServiceType string          `json:"serviceType"`
	Services    int             `json:"services"`
	Hours       decimal.Decimal `json:"hours"`
	Mileage     decimal.Decimal `json:"mileage"`
}

type MonthlyStatsDTO struct {
	Month    int                   `json:"month"`
	Services int                   `json:"services"`
	Hours    decimal.Decimal       `json:"hours"`
	Mileage  decimal.Decimal       `json:"mileage"`
	ByType   []ServiceTypeStatsDTO `json:"byServiceType"`
}

type YearStatsDTO struct {
	Year     int                   `json:"year"`
	Months   []MonthlyStatsDTO     `json:"months"`
	ByType   []ServiceTypeStatsDTO `json:"byServiceType"`
	Services int                   `json:"services"`
	Hours    decimal.Decimal       `json:"hours"`
	Mileage  decimal.Decimal       `json:"mileage"`
}

type StatsHandler struct {
	statsService     StatsService
	csvStatsRenderer StatsRenderer
}

func NewStatsHandler(statsService StatsService, csvStatsRenderer StatsRenderer) *StatsHandler {
	return &StatsHandler{statsService, csvStatsRenderer}
}

// GetDashboard godoc
// @Summary Headline figures of the current month
// @Tags Stats
// @Produce json
// @Success 200 {object} DashboardDTO
// @Router /api/stats/dashboard [get]
func (handler *StatsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := handler.statsService.Dashboard(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, DashboardDTO{
		ActiveClients:     dashboard.ActiveClients,
		ActiveStaff:       dashboard.ActiveStaff,
		Month:             dashboard.MonthStart.Format("2006-01"),
		MonthHours:        dashboard.MonthHours,
		MonthServices:     dashboard.MonthServices,
		MonthCost:         dashboard.MonthCost,
		Allocations:       dashboard.Allocations,
		BudgetTotal:       dashboard.BudgetTotal,
		BudgetUsed:        dashboard.BudgetUsed,
		BudgetUtilization: dashboard.BudgetUtilization,
	})
}

// GetMonthlyStats godoc
// @Summary Hours, services and mileage per month of a year
// @Description Responds with CSV when the Accept header is text/csv
// @Tags Stats
// @Produce json,text/csv
// @Param year query int false "Year, the current one when omitted"
// @Success 200 {object} YearStatsDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid year"
// @Router /api/stats/monthly [get]
func (handler *StatsHandler) GetMonthlyStats(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid year", "year must be a number")
			return
		}
		year = parsed
	}

	stats, err := handler.statsService.MonthlyStats(r.Context(), year)
	if errors.Is(err, ErrInvalidYear) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid year", err.Error())
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := handler.csvStatsRenderer.RenderYear(stats)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv response: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, yearToDTO(stats))
}

func typesToDTO(byType []ServiceTypeStats) []ServiceTypeStatsDTO {
	result := make([]ServiceTypeStatsDTO, 0, len(byType))
	for _, s := range byType {
		result = append(result, ServiceTypeStatsDTO(s))
	}
	return result
}

func yearToDTO(stats YearStats) YearStatsDTO {
	months := make([]MonthlyStatsDTO, 0, len(stats.Months))
	for _, m := range stats.Months {
		months = append(months, MonthlyStatsDTO{
			Month:    int(m.Month),
			Services: m.Services,
			Hours:    m.Hours,
			Mileage:  m.Mileage,
			ByType:   typesToDTO(m.ByType),
		})
	}
	return YearStatsDTO{
		Year:     stats.Year,
		Months:   months,
		ByType:   typesToDTO(stats.ByType),
		Services: stats.Services,
		Hours:    stats.Hours,
		Mileage:  stats.Mileage,
	}
}

