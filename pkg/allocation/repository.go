package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/homecare-coop/backoffice/internal/database"
	"github.com/homecare-coop/backoffice/pkg/compensation"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// Approve prices the plans against locked allocation balances, charges the allocations and stores the
	// fan-out records, all in one transaction.
	Approve(ctx context.Context, comp compensation.Compensation, plans []Plan, acknowledge bool) ([]Record, error)
	ListByCompensation(ctx context.Context, compensationId int) ([]Record, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const recordColumns = `id, compensation_id, time_log_id, client_budget_allocation_id, client_id, service_type,
	amount, hours, created_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.Id, &r.CompensationId, &r.TimeLogId, &r.BudgetAllocationId, &r.ClientId, &r.ServiceType,
		&r.Amount, &r.Hours, &r.CreatedAt)
	return r, err
}

func (r *RepositoryImpl) Approve(ctx context.Context, comp compensation.Compensation, plans []Plan, acknowledge bool) ([]Record, error) {
	var stored []Record
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockCompensation(ctx, tx, comp.Id); err != nil {
			return err
		}

		locked, err := lockAllocations(ctx, tx, plans)
		if err != nil {
			return err
		}
		resolved, err := resolve(plans, locked, comp.PeriodStart, comp.PeriodEnd, acknowledge)
		if err != nil {
			return err
		}

		charges := map[int]decimal.Decimal{}
		records := make([]Record, 0)
		for _, p := range resolved {
			charges[p.AllocationId] = charges[p.AllocationId].Add(p.Amount)
			records = append(records, fanOut(comp.Id, p)...)
		}

		batch := &pgx.Batch{}
		batch.Queue("UPDATE staff_compensations SET allocated_at = NOW() WHERE id = $1", comp.Id)
		for id, amount := range charges {
			if !amount.IsPositive() {
				continue
			}
			batch.Queue("UPDATE client_budget_allocations SET used_amount = used_amount + $1 WHERE id = $2", amount, id)
		}
		for _, rec := range records {
			batch.Queue(`INSERT INTO compensation_allocations (compensation_id, time_log_id, client_budget_allocation_id,
						 	client_id, service_type, amount, hours)
						 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				rec.CompensationId, rec.TimeLogId, rec.BudgetAllocationId, rec.ClientId, rec.ServiceType, rec.Amount,
				rec.Hours)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
		stored, err = listRecords(ctx, tx, comp.Id)
		return err
	})
	if err != nil {
		var exceeded *BudgetExceededError
		if errors.As(err, &exceeded) || errors.Is(err, ErrAlreadyAllocated) || errors.Is(err, ErrCompensationPaid) ||
			errors.Is(err, ErrAllocationDataInvalid) || errors.Is(err, compensation.ErrCompensationNotFound) {
			return nil, err
		}
		err = fmt.Errorf("could not approve compensation allocation: %w", err)
		log.Error(err)
		return nil, err
	}
	return stored, nil
}

// lockCompensation takes the row lock of the compensation and fails unless it is approved and not yet allocated.
func lockCompensation(ctx context.Context, tx pgx.Tx, id int) error {
	var status string
	var allocated bool
	err := tx.QueryRow(ctx, "SELECT status, allocated_at IS NOT NULL FROM staff_compensations WHERE id = $1 FOR UPDATE",
		id).Scan(&status, &allocated)
	if errors.Is(err, pgx.ErrNoRows) {
		return compensation.ErrCompensationNotFound
	}
	if err != nil {
		return err
	}
	if compensation.Status(status) == compensation.StatusPaid {
		return ErrCompensationPaid
	}
	if allocated {
		return ErrAlreadyAllocated
	}
	return nil
}

// lockAllocations reads the balances of the referenced allocations with FOR UPDATE, in id order.
func lockAllocations(ctx context.Context, tx pgx.Tx, plans []Plan) (map[int]LockedAllocation, error) {
	ids := make([]int, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.AllocationId)
	}
	rows, err := tx.Query(ctx, `SELECT id, client_id, total_amount - used_amount, start_date, end_date
			FROM client_budget_allocations WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locked := map[int]LockedAllocation{}
	for rows.Next() {
		var a LockedAllocation
		if err := rows.Scan(&a.Id, &a.ClientId, &a.Available, &a.StartDate, &a.EndDate); err != nil {
			return nil, err
		}
		locked[a.Id] = a
	}
	return locked, rows.Err()
}

func (r *RepositoryImpl) ListByCompensation(ctx context.Context, compensationId int) ([]Record, error) {
	records, err := listRecords(ctx, r.db, compensationId)
	if err != nil {
		err = fmt.Errorf("could not query compensation allocations: %w", err)
		log.Error(err)
		return nil, err
	}
	return records, nil
}

func listRecords(ctx context.Context, q database.Queryer, compensationId int) ([]Record, error) {
	rows, err := q.Query(ctx, `SELECT `+recordColumns+` FROM compensation_allocations
			WHERE compensation_id = $1 ORDER BY client_id, service_type, id`, compensationId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
