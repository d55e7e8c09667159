package time_log

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

var ErrTimeLogNotFound = errors.New("time log not found")
var ErrDuplicateIdentifier = errors.New("a time log with this external identifier already exists")
var ErrUnknownReference = errors.New("client or staff member does not exist")
var ErrTimeLogLocked = errors.New("time log is part of a compensation")
var ErrDuplicateImportRow = errors.New("a time log was already created from this import row")

type Repository interface {
	Create(ctx context.Context, timeLog TimeLog) (TimeLog, error)
	Get(ctx context.Context, id int) (TimeLog, error)
	List(ctx context.Context, filter Filter) ([]TimeLog, error)
	Update(ctx context.Context, timeLog TimeLog) (TimeLog, error)
	Delete(ctx context.Context, id int) error
	ExistsByExternalIdentifier(ctx context.Context, identifier string) (bool, error)
	ExistsByImportRow(ctx context.Context, importRowId int) (bool, error)
	// IsLocked reports whether the log is priced by a compensation, paid or not.
	IsLocked(ctx context.Context, id int) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const timeLogColumns = `id, client_id, staff_id, service_date, scheduled_start, scheduled_end, hours,
	service_type, mileage, COALESCE(notes, ''), COALESCE(import_id::text, ''), import_row_id,
	COALESCE(external_identifier, ''), created_at`

func scanTimeLog(row pgx.Row) (TimeLog, error) {
	var t TimeLog
	err := row.Scan(&t.Id, &t.ClientId, &t.StaffId, &t.ServiceDate, &t.ScheduledStart, &t.ScheduledEnd, &t.Hours,
		&t.ServiceType, &t.Mileage, &t.Notes, &t.ImportId, &t.ImportRowId, &t.ExternalIdentifier, &t.CreatedAt)
	return t, err
}

func (r *RepositoryImpl) Create(ctx context.Context, timeLog TimeLog) (TimeLog, error) {
	query := `INSERT INTO time_logs (client_id, staff_id, service_date, scheduled_start, scheduled_end, hours,
			  	service_type, mileage, notes, import_id, import_row_id, external_identifier)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::uuid, $11, $12)
			  RETURNING ` + timeLogColumns
	created, err := scanTimeLog(r.db.QueryRow(ctx, query,
		timeLog.ClientId,
		timeLog.StaffId,
		timeLog.ServiceDate,
		timeLog.ScheduledStart,
		timeLog.ScheduledEnd,
		timeLog.Hours,
		timeLog.ServiceType,
		timeLog.Mileage,
		database.NullIfEmpty(timeLog.Notes),
		database.NullIfEmpty(timeLog.ImportId),
		timeLog.ImportRowId,
		database.NullIfEmpty(timeLog.ExternalIdentifier),
	))
	if err != nil {
		return TimeLog{}, mapWriteError("insert", err)
	}
	return created, nil
}

func mapWriteError(op string, err error) error {
	if database.IsUniqueViolation(err) && database.ViolatedConstraint(err) == "uq_time_logs_import_row" {
		return ErrDuplicateImportRow
	}
	if database.IsUniqueViolation(err) {
		return ErrDuplicateIdentifier
	}
	if database.IsForeignKeyViolation(err) {
		return ErrUnknownReference
	}
	err = fmt.Errorf("could not %s time log: %w", op, err)
	log.Error(err)
	return err
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (TimeLog, error) {
	t, err := scanTimeLog(r.db.QueryRow(ctx, `SELECT `+timeLogColumns+` FROM time_logs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return TimeLog{}, ErrTimeLogNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not query time log: %w", err)
		log.Error(err)
		return TimeLog{}, err
	}
	return t, nil
}

func (r *RepositoryImpl) List(ctx context.Context, filter Filter) ([]TimeLog, error) {
	var from, to *time.Time
	if !filter.From.IsZero() {
		from = &filter.From
	}
	if !filter.To.IsZero() {
		to = &filter.To
	}
	query := `SELECT ` + timeLogColumns + ` FROM time_logs
			  WHERE ($1 = 0 OR staff_id = $1)
			    AND ($2 = 0 OR client_id = $2)
			    AND ($3::date IS NULL OR service_date >= $3::date)
			    AND ($4::date IS NULL OR service_date <= $4::date)
			  ORDER BY service_date, scheduled_start NULLS LAST, id`
	rows, err := r.db.Query(ctx, query, filter.StaffId, filter.ClientId, from, to)
	if err != nil {
		err = fmt.Errorf("could not query time logs: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	result := make([]TimeLog, 0)
	for rows.Next() {
		t, err := scanTimeLog(rows)
		if err != nil {
			err = fmt.Errorf("could not scan time log: %w", err)
			log.Error(err)
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, timeLog TimeLog) (TimeLog, error) {
	query := `UPDATE time_logs
			  SET client_id = $1, staff_id = $2, service_date = $3, scheduled_start = $4, scheduled_end = $5,
			      hours = $6, service_type = $7, mileage = $8, notes = $9, updated_at = NOW()
			  WHERE id = $10 RETURNING ` + timeLogColumns
	var updated TimeLog
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockUncompensated(ctx, tx, timeLog.Id); err != nil {
			return err
		}
		var err error
		updated, err = scanTimeLog(tx.QueryRow(ctx, query,
			timeLog.ClientId,
			timeLog.StaffId,
			timeLog.ServiceDate,
			timeLog.ScheduledStart,
			timeLog.ScheduledEnd,
			timeLog.Hours,
			timeLog.ServiceType,
			timeLog.Mileage,
			database.NullIfEmpty(timeLog.Notes),
			timeLog.Id,
		))
		return err
	})
	if errors.Is(err, ErrTimeLogNotFound) || errors.Is(err, ErrTimeLogLocked) {
		return TimeLog{}, err
	}
	if err != nil {
		return TimeLog{}, mapWriteError("update", err)
	}
	return updated, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockUncompensated(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "DELETE FROM time_logs WHERE id = $1", id)
		return err
	})
	if err != nil && !errors.Is(err, ErrTimeLogNotFound) && !errors.Is(err, ErrTimeLogLocked) {
		err = fmt.Errorf("could not delete time log %d: %w", id, err)
		log.Error(err)
	}
	return err
}

// lockUncompensated takes the row lock of the log and fails when a compensation prices it.
// Compensation creation locks the same rows, so the check cannot interleave with it.
func lockUncompensated(ctx context.Context, tx pgx.Tx, id int) error {
	var found int
	err := tx.QueryRow(ctx, "SELECT id FROM time_logs WHERE id = $1 FOR UPDATE", id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTimeLogNotFound
	}
	if err != nil {
		return err
	}
	var compensated bool
	err = tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM compensation_lines WHERE time_log_id = $1)", id).Scan(&compensated)
	if err != nil {
		return err
	}
	if compensated {
		return ErrTimeLogLocked
	}
	return nil
}

func (r *RepositoryImpl) ExistsByExternalIdentifier(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM time_logs WHERE external_identifier = $1)", identifier).
		Scan(&exists)
	if err != nil {
		err = fmt.Errorf("could not check time log identifier: %w", err)
		log.Error(err)
		return false, err
	}
	return exists, nil
}

func (r *RepositoryImpl) ExistsByImportRow(ctx context.Context, importRowId int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM time_logs WHERE import_row_id = $1)", importRowId).
		Scan(&exists)
	if err != nil {
		err = fmt.Errorf("could not check time log import row: %w", err)
		log.Error(err)
		return false, err
	}
	return exists, nil
}

func (r *RepositoryImpl) IsLocked(ctx context.Context, id int) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 FROM compensation_lines WHERE time_log_id = $1)"
	var locked bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&locked); err != nil {
		err = fmt.Errorf("could not check time log lock: %w", err)
		log.Error(err)
		return false, err
	}
	return locked, nil
}
