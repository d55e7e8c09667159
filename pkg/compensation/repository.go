package compensation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homecare-coop/backoffice/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrCompensationNotFound = errors.New("compensation not found")
var ErrCompensationExists = errors.New("a compensation for this staff member and period already exists")
var ErrTimeLogsChanged = errors.New("time logs changed while the compensation was calculated")

type Repository interface {
	// Create stores the compensation with its lines in one transaction.
	Create(ctx context.Context, comp Compensation) (Compensation, error)
	// Get returns the compensation including its lines.
	Get(ctx context.Context, id int) (Compensation, error)
	List(ctx context.Context, filter Filter) ([]Compensation, error)
	Delete(ctx context.Context, id int) error
	MarkPaid(ctx context.Context, id int, paidAt time.Time) (Compensation, error)
	HasAllocations(ctx context.Context, id int) (bool, error)
	// CompensatedTimeLogs returns the subset of timeLogIds already priced by some compensation.
	CompensatedTimeLogs(ctx context.Context, timeLogIds []int) ([]int, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const compensationColumns = `c.id, c.staff_id, s.first_name || ' ' || s.last_name, c.period_start, c.period_end,
	c.regular_hours, c.overtime_hours, c.weekend_hours, c.holiday_hours, c.total_mileage,
	c.regular_amount, c.overtime_amount, c.weekend_amount, c.holiday_amount, c.mileage_amount, c.total_compensation,
	c.weekday_rate, c.weekend_rate, c.holiday_rate, c.mileage_rate, c.overtime_multiplier,
	c.status, c.paid_at, c.allocated_at, c.created_at`

const compensationFrom = ` FROM staff_compensations c JOIN staff s ON s.id = c.staff_id`

func scanCompensation(row pgx.Row) (Compensation, error) {
	var c Compensation
	var status string
	err := row.Scan(&c.Id, &c.StaffId, &c.StaffName, &c.PeriodStart, &c.PeriodEnd,
		&c.RegularHours, &c.OvertimeHours, &c.WeekendHours, &c.HolidayHours, &c.TotalMileage,
		&c.RegularAmount, &c.OvertimeAmount, &c.WeekendAmount, &c.HolidayAmount, &c.MileageAmount, &c.TotalCompensation,
		&c.Rate.WeekdayRate, &c.Rate.WeekendRate, &c.Rate.HolidayRate, &c.Rate.MileageRate, &c.Rate.OvertimeMultiplier,
		&status, &c.PaidAt, &c.AllocatedAt, &c.CreatedAt)
	c.Status = Status(status)
	return c, err
}

func (r *RepositoryImpl) Create(ctx context.Context, comp Compensation) (Compensation, error) {
	var id int
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockPricedLogs(ctx, tx, comp.Lines); err != nil {
			return err
		}
		query := `INSERT INTO staff_compensations (staff_id, period_start, period_end,
				  	regular_hours, overtime_hours, weekend_hours, holiday_hours, total_mileage,
				  	regular_amount, overtime_amount, weekend_amount, holiday_amount, mileage_amount, total_compensation,
				  	weekday_rate, weekend_rate, holiday_rate, mileage_rate, overtime_multiplier, status)
				  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
				  RETURNING id`
		err := tx.QueryRow(ctx, query, comp.StaffId, comp.PeriodStart, comp.PeriodEnd,
			comp.RegularHours, comp.OvertimeHours, comp.WeekendHours, comp.HolidayHours, comp.TotalMileage,
			comp.RegularAmount, comp.OvertimeAmount, comp.WeekendAmount, comp.HolidayAmount, comp.MileageAmount,
			comp.TotalCompensation, comp.Rate.WeekdayRate, comp.Rate.WeekendRate, comp.Rate.HolidayRate,
			comp.Rate.MileageRate, comp.Rate.OvertimeMultiplier, string(StatusApproved)).Scan(&id)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, l := range comp.Lines {
			batch.Queue(`INSERT INTO compensation_lines (compensation_id, time_log_id, client_id, service_type,
						 	service_date, day_kind, hours, overtime_hours, mileage, cost)
						 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				id, l.TimeLogId, l.ClientId, l.ServiceType, l.ServiceDate, string(l.DayKind), l.Hours, l.OvertimeHours,
				l.Mileage, l.Cost)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTimeLogsChanged), errors.Is(err, ErrTimeLogsAlreadyCompensated):
			return Compensation{}, err
		case database.IsUniqueViolation(err) && database.ViolatedConstraint(err) == "uq_compensation_lines_time_log":
			return Compensation{}, ErrTimeLogsAlreadyCompensated
		case database.IsUniqueViolation(err):
			return Compensation{}, ErrCompensationExists
		}
		err = fmt.Errorf("could not store compensation: %w", err)
		log.Error(err)
		return Compensation{}, err
	}
	return r.Get(ctx, id)
}

// lockPricedLogs row-locks the logs behind the lines and checks they still carry the priced values
// and are not priced by another compensation yet.
func lockPricedLogs(ctx context.Context, tx pgx.Tx, lines []Line) error {
	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.TimeLogId)
	}
	rows, err := tx.Query(ctx, `SELECT t.id, t.client_id, t.hours, t.mileage,
			EXISTS (SELECT 1 FROM compensation_lines l WHERE l.time_log_id = t.id)
		FROM time_logs t WHERE t.id = ANY($1) ORDER BY t.id FOR UPDATE OF t`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	type current struct {
		clientId       int
		hours, mileage decimal.Decimal
		priced         bool
	}
	found := map[int]current{}
	for rows.Next() {
		var id int
		var c current
		if err := rows.Scan(&id, &c.clientId, &c.hours, &c.mileage, &c.priced); err != nil {
			return err
		}
		found[id] = c
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		c, ok := found[l.TimeLogId]
		if !ok || c.clientId != l.ClientId || !c.hours.Equal(l.Hours) || !c.mileage.Equal(l.Mileage) {
			return fmt.Errorf("%w: time log %d", ErrTimeLogsChanged, l.TimeLogId)
		}
		if c.priced {
			return fmt.Errorf("%w: time log %d", ErrTimeLogsAlreadyCompensated, l.TimeLogId)
		}
	}
	return nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Compensation, error) {
	comp, err := scanCompensation(r.db.QueryRow(ctx, `SELECT `+compensationColumns+compensationFrom+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Compensation{}, ErrCompensationNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not query compensation: %w", err)
		log.Error(err)
		return Compensation{}, err
	}
	comp.Lines, err = r.lines(ctx, id)
	if err != nil {
		return Compensation{}, err
	}
	return comp, nil
}

func (r *RepositoryImpl) lines(ctx context.Context, compensationId int) ([]Line, error) {
	query := `SELECT id, time_log_id, client_id, service_type, service_date, day_kind, hours, overtime_hours, mileage, cost
			  FROM compensation_lines WHERE compensation_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, compensationId)
	if err != nil {
		err = fmt.Errorf("could not query compensation lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		var dayKind string
		if err := rows.Scan(&l.Id, &l.TimeLogId, &l.ClientId, &l.ServiceType, &l.ServiceDate, &dayKind, &l.Hours,
			&l.OvertimeHours, &l.Mileage, &l.Cost); err != nil {
			err = fmt.Errorf("could not scan compensation line: %w", err)
			log.Error(err)
			return nil, err
		}
		l.DayKind = DayKind(dayKind)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// List returns compensations overlapping [From, To], without lines.
func (r *RepositoryImpl) List(ctx context.Context, filter Filter) ([]Compensation, error) {
	var from, to *time.Time
	if !filter.From.IsZero() {
		from = &filter.From
	}
	if !filter.To.IsZero() {
		to = &filter.To
	}
	query := `SELECT ` + compensationColumns + compensationFrom + `
			  WHERE ($1 = 0 OR c.staff_id = $1)
			    AND ($2::date IS NULL OR c.period_end >= $2::date)
			    AND ($3::date IS NULL OR c.period_start <= $3::date)
			    AND ($4 = '' OR c.status = $4)
			  ORDER BY c.period_start DESC, s.last_name, s.first_name, c.id`
	rows, err := r.db.Query(ctx, query, filter.StaffId, from, to, string(filter.Status))
	if err != nil {
		err = fmt.Errorf("could not query compensations: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	result := make([]Compensation, 0)
	for rows.Next() {
		c, err := scanCompensation(rows)
		if err != nil {
			err = fmt.Errorf("could not scan compensation: %w", err)
			log.Error(err)
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, "DELETE FROM staff_compensations WHERE id = $1", id)
	if err != nil {
		err = fmt.Errorf("could not delete compensation %d: %w", id, err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCompensationNotFound
	}
	return nil
}

func (r *RepositoryImpl) MarkPaid(ctx context.Context, id int, paidAt time.Time) (Compensation, error) {
	result, err := r.db.Exec(ctx,
		"UPDATE staff_compensations SET status = 'paid', paid_at = $1 WHERE id = $2 AND status = 'approved'", paidAt, id)
	if err != nil {
		err = fmt.Errorf("could not mark compensation %d as paid: %w", id, err)
		log.Error(err)
		return Compensation{}, err
	}
	if result.RowsAffected() == 0 {
		existing, err := r.Get(ctx, id)
		if err != nil {
			return Compensation{}, err
		}
		if existing.Status == StatusPaid {
			return Compensation{}, ErrAlreadyPaid
		}
	}
	return r.Get(ctx, id)
}

func (r *RepositoryImpl) HasAllocations(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM staff_compensations WHERE id = $1 AND allocated_at IS NOT NULL)
			OR EXISTS (SELECT 1 FROM compensation_allocations WHERE compensation_id = $1)`, id).Scan(&exists)
	if err != nil {
		err = fmt.Errorf("could not check compensation allocations: %w", err)
		log.Error(err)
		return false, err
	}
	return exists, nil
}

func (r *RepositoryImpl) CompensatedTimeLogs(ctx context.Context, timeLogIds []int) ([]int, error) {
	if len(timeLogIds) == 0 {
		return []int{}, nil
	}
	rows, err := r.db.Query(ctx,
		"SELECT DISTINCT time_log_id FROM compensation_lines WHERE time_log_id = ANY($1) ORDER BY time_log_id", timeLogIds)
	if err != nil {
		err = fmt.Errorf("could not query compensated time logs: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		err = fmt.Errorf("could not scan compensated time logs: %w", err)
		log.Error(err)
		return nil, err
	}
	return ids, nil
}
