package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homecare-coop/backoffice/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrBudgetTypeNotFound = errors.New("budget type not found")
var ErrAllocationNotFound = errors.New("budget allocation not found")
var ErrAllocationInUse = errors.New("budget allocation has been used by compensations")
var ErrUnknownClient = errors.New("client does not exist")

type BudgetRepo interface {
	ListTypes(ctx context.Context) ([]BudgetType, error)
	GetType(ctx context.Context, id int) (BudgetType, error)
	CreateAllocation(ctx context.Context, allocation Allocation) (Allocation, error)
	GetAllocation(ctx context.Context, id int) (Allocation, error)
	ListAllocations(ctx context.Context, filter AllocationFilter) ([]Allocation, error)
	UpdateAllocation(ctx context.Context, allocation Allocation) (Allocation, error)
	DeleteAllocation(ctx context.Context, id int) error
}

type BudgetRepoImpl struct {
	db *pgxpool.Pool
}

func NewBudgetRepo(db *pgxpool.Pool) *BudgetRepoImpl {
	return &BudgetRepoImpl{db: db}
}

const typeColumns = `id, code, name, description, default_weekday_rate, default_holiday_rate, default_kilometer_rate,
	can_fund_mileage, display_order`

func scanType(row pgx.Row) (BudgetType, error) {
	var t BudgetType
	err := row.Scan(&t.Id, &t.Code, &t.Name, &t.Description, &t.DefaultWeekdayRate, &t.DefaultHolidayRate,
		&t.DefaultKilometerRate, &t.CanFundMileage, &t.DisplayOrder)
	return t, err
}

func (r *BudgetRepoImpl) ListTypes(ctx context.Context) ([]BudgetType, error) {
	rows, err := r.db.Query(ctx, `SELECT `+typeColumns+` FROM budget_types ORDER BY display_order, id`)
	if err != nil {
		err = fmt.Errorf("could not query budget types: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	types := make([]BudgetType, 0)
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			err = fmt.Errorf("could not scan budget type: %w", err)
			log.Error(err)
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *BudgetRepoImpl) GetType(ctx context.Context, id int) (BudgetType, error) {
	t, err := scanType(r.db.QueryRow(ctx, `SELECT `+typeColumns+` FROM budget_types WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return BudgetType{}, ErrBudgetTypeNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not query budget type: %w", err)
		log.Error(err)
		return BudgetType{}, err
	}
	return t, nil
}

const allocationColumns = `a.id, a.client_id, a.budget_type_id, t.code, t.name, a.total_amount, a.used_amount,
	a.start_date, a.end_date, a.created_at`

const allocationFrom = ` FROM client_budget_allocations a JOIN budget_types t ON t.id = a.budget_type_id`

func scanAllocation(row pgx.Row) (Allocation, error) {
	var a Allocation
	err := row.Scan(&a.Id, &a.ClientId, &a.BudgetTypeId, &a.BudgetTypeCode, &a.BudgetTypeName, &a.TotalAmount,
		&a.UsedAmount, &a.StartDate, &a.EndDate, &a.CreatedAt)
	return a, err
}

func (r *BudgetRepoImpl) CreateAllocation(ctx context.Context, allocation Allocation) (Allocation, error) {
	var id int
	err := r.db.QueryRow(ctx, `INSERT INTO client_budget_allocations (client_id, budget_type_id, total_amount, used_amount,
			start_date, end_date) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		allocation.ClientId, allocation.BudgetTypeId, allocation.TotalAmount, allocation.UsedAmount,
		allocation.StartDate, allocation.EndDate).Scan(&id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Allocation{}, ErrUnknownClient
		}
		err = fmt.Errorf("could not insert budget allocation: %w", err)
		log.Error(err)
		return Allocation{}, err
	}
	return r.GetAllocation(ctx, id)
}

func (r *BudgetRepoImpl) GetAllocation(ctx context.Context, id int) (Allocation, error) {
	a, err := scanAllocation(r.db.QueryRow(ctx, `SELECT `+allocationColumns+allocationFrom+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Allocation{}, ErrAllocationNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not query budget allocation: %w", err)
		log.Error(err)
		return Allocation{}, err
	}
	return a, nil
}

func (r *BudgetRepoImpl) ListAllocations(ctx context.Context, filter AllocationFilter) ([]Allocation, error) {
	var from, to *time.Time
	if !filter.ActiveFrom.IsZero() {
		from = &filter.ActiveFrom
	}
	if !filter.ActiveTo.IsZero() {
		to = &filter.ActiveTo
	}
	query := `SELECT ` + allocationColumns + allocationFrom + `
			  WHERE ($1 = 0 OR a.client_id = $1)
			    AND ($2::date IS NULL OR a.end_date >= $2::date)
			    AND ($3::date IS NULL OR a.start_date <= $3::date)
			  ORDER BY a.client_id, t.display_order, a.start_date, a.id`
	rows, err := r.db.Query(ctx, query, filter.ClientId, from, to)
	if err != nil {
		err = fmt.Errorf("could not query budget allocations: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	result := make([]Allocation, 0)
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			err = fmt.Errorf("could not scan budget allocation: %w", err)
			log.Error(err)
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *BudgetRepoImpl) UpdateAllocation(ctx context.Context, allocation Allocation) (Allocation, error) {
	result, err := r.db.Exec(ctx, `UPDATE client_budget_allocations
			SET budget_type_id = $1, total_amount = $2, start_date = $3, end_date = $4
			WHERE id = $5`,
		allocation.BudgetTypeId, allocation.TotalAmount, allocation.StartDate, allocation.EndDate, allocation.Id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Allocation{}, ErrBudgetTypeNotFound
		}
		err = fmt.Errorf("could not update budget allocation: %w", err)
		log.Error(err)
		return Allocation{}, err
	}
	if result.RowsAffected() == 0 {
		return Allocation{}, ErrAllocationNotFound
	}
	return r.GetAllocation(ctx, allocation.Id)
}

func (r *BudgetRepoImpl) DeleteAllocation(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, "DELETE FROM client_budget_allocations WHERE id = $1", id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrAllocationInUse
		}
		err = fmt.Errorf("could not delete budget allocation: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAllocationNotFound
	}
	return nil
}
