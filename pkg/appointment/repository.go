package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homecare-coop/backoffice/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrAppointmentNotFound = errors.New("appointment not found")
var ErrUnknownReference = errors.New("client or staff member does not exist")

type Repository interface {
	Create(ctx context.Context, appointment Appointment) (Appointment, error)
	Get(ctx context.Context, id string) (Appointment, error)
	// List returns the appointments overlapping [from, to].
	List(ctx context.Context, from, to time.Time) ([]Appointment, error)
	Update(ctx context.Context, appointment Appointment) (Appointment, error)
	Delete(ctx context.Context, id string) error
	// StartingBetween returns the appointments starting in [from, to).
	StartingBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const appointmentColumns = `id::text, client_id, staff_id, start_time, end_time, service_type, notes`

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.Id, &a.ClientId, &a.StaffId, &a.Start, &a.End, &a.ServiceType, &a.Notes)
	return a, err
}

func (r *RepositoryImpl) Create(ctx context.Context, appointment Appointment) (Appointment, error) {
	query := `INSERT INTO appointments (id, client_id, staff_id, start_time, end_time, service_type, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING ` + appointmentColumns
	created, err := scanAppointment(r.db.QueryRow(ctx, query, uuid.NewString(), appointment.ClientId,
		appointment.StaffId, appointment.Start, appointment.End, appointment.ServiceType, appointment.Notes))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Appointment{}, ErrUnknownReference
		}
		err = fmt.Errorf("could not insert appointment: %w", err)
		log.Error(err)
		return Appointment{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id string) (Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1::uuid`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrAppointmentNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not query appointment: %w", err)
		log.Error(err)
		return Appointment{}, err
	}
	return a, nil
}

func (r *RepositoryImpl) List(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	// overlapping: starts before the end of the period and ends after its start
	return r.query(ctx, `SELECT `+appointmentColumns+` FROM appointments
		WHERE start_time <= $2 AND end_time >= $1 ORDER BY start_time, id`, from, to)
}

func (r *RepositoryImpl) StartingBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	return r.query(ctx, `SELECT `+appointmentColumns+` FROM appointments
		WHERE start_time >= $1 AND start_time < $2 ORDER BY start_time, id`, from, to)
}

func (r *RepositoryImpl) query(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		err = fmt.Errorf("could not query appointments: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	appointments := make([]Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			err = fmt.Errorf("could not scan appointment: %w", err)
			log.Error(err)
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, appointment Appointment) (Appointment, error) {
	query := `UPDATE appointments SET client_id = $1, staff_id = $2, start_time = $3, end_time = $4,
				service_type = $5, notes = $6
			  WHERE id = $7::uuid RETURNING ` + appointmentColumns
	updated, err := scanAppointment(r.db.QueryRow(ctx, query, appointment.ClientId, appointment.StaffId,
		appointment.Start, appointment.End, appointment.ServiceType, appointment.Notes, appointment.Id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrAppointmentNotFound
	}
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Appointment{}, ErrUnknownReference
		}
		err = fmt.Errorf("could not update appointment: %w", err)
		log.Error(err)
		return Appointment{}, err
	}
	return updated, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1::uuid`, id)
	if err != nil {
		err = fmt.Errorf("could not delete appointment: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
