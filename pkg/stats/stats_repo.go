package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type StatsRepo interface {
	CountActiveClients(ctx context.Context) (int, error)
	CountActiveStaff(ctx context.Context) (int, error)
	// ServiceTotals aggregates time logs with a service date in [from, to) by month and service type.
	ServiceTotals(ctx context.Context, from, to time.Time) ([]ServiceTotal, error)
	CompensationCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	BudgetUsage(ctx context.Context, day time.Time) (BudgetUsage, error)
}

type StatsRepoImpl struct {
	db *pgxpool.Pool
}

func NewStatsRepo(db *pgxpool.Pool) *StatsRepoImpl {
	return &StatsRepoImpl{db: db}
}

func (r *StatsRepoImpl) CountActiveClients(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE status = 'active'`).Scan(&count)
	if err != nil {
		err = fmt.Errorf("could not count active clients: %w", err)
		log.Error(err)
		return 0, err
	}
	return count, nil
}

func (r *StatsRepoImpl) CountActiveStaff(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM staff WHERE status = 'active'`).Scan(&count)
	if err != nil {
		err = fmt.Errorf("could not count active staff: %w", err)
		log.Error(err)
		return 0, err
	}
	return count, nil
}

func (r *StatsRepoImpl) ServiceTotals(ctx context.Context, from, to time.Time) ([]ServiceTotal, error) {
	query := `SELECT EXTRACT(MONTH FROM service_date)::int, service_type, COUNT(*), COALESCE(SUM(hours), 0),
				COALESCE(SUM(mileage), 0)
			  FROM time_logs
			  WHERE service_date >= $1 AND service_date < $2
			  GROUP BY 1, 2
			  ORDER BY 1, 2`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		err = fmt.Errorf("could not query service totals: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	totals := make([]ServiceTotal, 0)
	for rows.Next() {
		var total ServiceTotal
		var month int
		if err := rows.Scan(&month, &total.ServiceType, &total.Services, &total.Hours, &total.Mileage); err != nil {
			err = fmt.Errorf("could not scan service total: %w", err)
			log.Error(err)
			return nil, err
		}
		total.Month = time.Month(month)
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

func (r *StatsRepoImpl) CompensationCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var cost decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(cost), 0) FROM compensation_lines
		WHERE service_date >= $1 AND service_date < $2`, from, to).Scan(&cost)
	if err != nil {
		err = fmt.Errorf("could not sum compensation cost: %w", err)
		log.Error(err)
		return decimal.Zero, err
	}
	return cost, nil
}

func (r *StatsRepoImpl) BudgetUsage(ctx context.Context, day time.Time) (BudgetUsage, error) {
	var usage BudgetUsage
	err := r.db.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(total_amount), 0), COALESCE(SUM(used_amount), 0)
		FROM client_budget_allocations
		WHERE start_date <= $1 AND end_date >= $1`, day).Scan(&usage.Allocations, &usage.Total, &usage.Used)
	if err != nil {
		err = fmt.Errorf("could not sum budget usage: %w", err)
		log.Error(err)
		return BudgetUsage{}, err
	}
	return usage, nil
}
