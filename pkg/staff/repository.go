package staff

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

var ErrStaffNotFound = errors.New("staff member not found")
var ErrRateNotFound = errors.New("staff rate not found")
var ErrDuplicateExternalId = errors.New("a staff member with this external id already exists")
var ErrStaffInUse = errors.New("staff member has time logs or compensations")

type Repository interface {
	Create(ctx context.Context, staff Staff) (Staff, error)
	Get(ctx context.Context, id int) (Staff, error)
	List(ctx context.Context, filter Filter) ([]Staff, error)
	Update(ctx context.Context, staff Staff) (Staff, error)
	Delete(ctx context.Context, id int) error
	FindByExternalId(ctx context.Context, externalId string) (Staff, error)

	CreateRate(ctx context.Context, rate Rate) (Rate, error)
	GetRate(ctx context.Context, id int) (Rate, error)
	ListRates(ctx context.Context, staffId int) ([]Rate, error)
	UpdateRate(ctx context.Context, rate Rate) (Rate, error)
	DeleteRate(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const staffColumns = `id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''), type, status,
	COALESCE(external_id, ''), hire_date, created_at`

func scanStaff(row pgx.Row) (Staff, error) {
	var s Staff
	var staffType, status string
	var hireDate *time.Time
	err := row.Scan(&s.Id, &s.FirstName, &s.LastName, &s.Email, &s.Phone, &staffType, &status, &s.ExternalId,
		&hireDate, &s.CreatedAt)
	s.Type = Type(staffType)
	s.Status = Status(status)
	s.HireDate = hireDate
	return s, err
}

func (r *RepositoryImpl) Create(ctx context.Context, staff Staff) (Staff, error) {
	query := `INSERT INTO staff (first_name, last_name, email, phone, type, status, external_id, hire_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING ` + staffColumns
	created, err := scanStaff(r.db.QueryRow(ctx, query,
		staff.FirstName,
		staff.LastName,
		database.NullIfEmpty(staff.Email),
		database.NullIfEmpty(staff.Phone),
		string(staff.Type),
		string(staff.Status),
		database.NullIfEmpty(staff.ExternalId),
		staff.HireDate,
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Staff{}, ErrDuplicateExternalId
		}
		err = fmt.Errorf("could not insert staff: %w", err)
		log.Error(err)
		return Staff{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) getOne(ctx context.Context, where string, arg any) (Staff, error) {
	s, err := scanStaff(r.db.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return Staff{}, ErrStaffNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not query staff: %w", err)
		log.Error(err)
		return Staff{}, err
	}
	return s, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Staff, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *RepositoryImpl) FindByExternalId(ctx context.Context, externalId string) (Staff, error) {
	return r.getOne(ctx, "external_id = $1", externalId)
}

func (r *RepositoryImpl) List(ctx context.Context, filter Filter) ([]Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff
			  WHERE ($1 = '' OR status = $1)
			    AND ($2 = '' OR type = $2)
			    AND ($3 = '' OR first_name ILIKE '%' || $3 || '%' OR last_name ILIKE '%' || $3 || '%'
			         OR external_id ILIKE '%' || $3 || '%')
			  ORDER BY last_name, first_name, id`
	rows, err := r.db.Query(ctx, query, string(filter.Status), string(filter.Type), filter.Search)
	if err != nil {
		err = fmt.Errorf("could not query staff: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	result := make([]Staff, 0)
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, staff Staff) (Staff, error) {
	query := `UPDATE staff SET first_name = $1, last_name = $2, email = $3, phone = $4, type = $5, status = $6,
                external_id = $7, hire_date = $8, updated_at = NOW()
			  WHERE id = $9 RETURNING ` + staffColumns
	updated, err := scanStaff(r.db.QueryRow(ctx, query,
		staff.FirstName,
		staff.LastName,
		database.NullIfEmpty(staff.Email),
		database.NullIfEmpty(staff.Phone),
		string(staff.Type),
		string(staff.Status),
		database.NullIfEmpty(staff.ExternalId),
		staff.HireDate,
		staff.Id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Staff{}, ErrStaffNotFound
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Staff{}, ErrDuplicateExternalId
		}
		err = fmt.Errorf("could not update staff: %w", err)
		log.Error(err)
		return Staff{}, err
	}
	return updated, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, "DELETE FROM staff WHERE id = $1", id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrStaffInUse
		}
		err = fmt.Errorf("could not delete staff: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrStaffNotFound
	}
	return nil
}

const rateColumns = `id, staff_id, weekday_rate, weekend_rate, holiday_rate, mileage_rate, overtime_multiplier,
	effective_from, is_active`

func scanRate(row pgx.Row) (Rate, error) {
	var rate Rate
	err := row.Scan(&rate.Id, &rate.StaffId, &rate.WeekdayRate, &rate.WeekendRate, &rate.HolidayRate,
		&rate.MileageRate, &rate.OvertimeMultiplier, &rate.EffectiveFrom, &rate.IsActive)
	return rate, err
}

func (r *RepositoryImpl) CreateRate(ctx context.Context, rate Rate) (Rate, error) {
	query := `INSERT INTO staff_rates (staff_id, weekday_rate, weekend_rate, holiday_rate, mileage_rate,
                         overtime_multiplier, effective_from, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING ` + rateColumns
	created, err := scanRate(r.db.QueryRow(ctx, query,
		rate.StaffId,
		rate.WeekdayRate,
		rate.WeekendRate,
		rate.HolidayRate,
		rate.MileageRate,
		rate.OvertimeMultiplier,
		rate.EffectiveFrom,
		rate.IsActive,
	))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Rate{}, ErrStaffNotFound
		}
		err = fmt.Errorf("could not insert staff rate: %w", err)
		log.Error(err)
		return Rate{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) GetRate(ctx context.Context, id int) (Rate, error) {
	rate, err := scanRate(r.db.QueryRow(ctx, `SELECT `+rateColumns+` FROM staff_rates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, ErrRateNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not query staff rate: %w", err)
		log.Error(err)
		return Rate{}, err
	}
	return rate, nil
}

func (r *RepositoryImpl) ListRates(ctx context.Context, staffId int) ([]Rate, error) {
	query := `SELECT ` + rateColumns + ` FROM staff_rates WHERE staff_id = $1 ORDER BY effective_from DESC, id DESC`
	rows, err := r.db.Query(ctx, query, staffId)
	if err != nil {
		err = fmt.Errorf("could not query staff rates: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	rates := make([]Rate, 0)
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

func (r *RepositoryImpl) UpdateRate(ctx context.Context, rate Rate) (Rate, error) {
	query := `UPDATE staff_rates SET weekday_rate = $1, weekend_rate = $2, holiday_rate = $3, mileage_rate = $4,
                overtime_multiplier = $5, effective_from = $6, is_active = $7
			  WHERE id = $8 RETURNING ` + rateColumns
	updated, err := scanRate(r.db.QueryRow(ctx, query,
		rate.WeekdayRate,
		rate.WeekendRate,
		rate.HolidayRate,
		rate.MileageRate,
		rate.OvertimeMultiplier,
		rate.EffectiveFrom,
		rate.IsActive,
		rate.Id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, ErrRateNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not update staff rate: %w", err)
		log.Error(err)
		return Rate{}, err
	}
	return updated, nil
}

func (r *RepositoryImpl) DeleteRate(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, "DELETE FROM staff_rates WHERE id = $1", id)
	if err != nil {
		err = fmt.Errorf("could not delete staff rate: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRateNotFound
	}
	return nil
}
