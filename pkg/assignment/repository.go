package assignment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/homecare-coop/backoffice/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrAssignmentNotFound = errors.New("assignment not found")
var ErrUnknownReference = errors.New("client or staff member does not exist")
var ErrDuplicateAssignment = errors.New("the staff member is already assigned to this client")

type Repository interface {
	Create(ctx context.Context, a Assignment) (Assignment, error)
	Get(ctx context.Context, id int) (Assignment, error)
	// List returns the assignments matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]Assignment, error)
	Update(ctx context.Context, a Assignment) (Assignment, error)
	Delete(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const assignmentColumns = `a.id, a.client_id, c.first_name || ' ' || c.last_name, a.staff_id,
	s.first_name || ' ' || s.last_name, a.assignment_type, a.start_date, a.end_date, a.is_active, a.created_at, a.updated_at`

const assignmentFrom = ` FROM client_staff_assignments a
	JOIN clients c ON c.id = a.client_id
	JOIN staff s ON s.id = a.staff_id`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	var assignmentType string
	err := row.Scan(&a.Id, &a.ClientId, &a.ClientName, &a.StaffId, &a.StaffName, &assignmentType, &a.StartDate,
		&a.EndDate, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	a.Type = Type(assignmentType)
	return a, err
}

func mapWriteError(op string, err error) error {
	if database.IsUniqueViolation(err) {
		return ErrDuplicateAssignment
	}
	if database.IsForeignKeyViolation(err) {
		return ErrUnknownReference
	}
	err = fmt.Errorf("could not %s assignment: %w", op, err)
	log.Error(err)
	return err
}

func (r *RepositoryImpl) Create(ctx context.Context, a Assignment) (Assignment, error) {
	var id int
	err := r.db.QueryRow(ctx, `INSERT INTO client_staff_assignments
			(client_id, staff_id, assignment_type, start_date, end_date, is_active)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		a.ClientId, a.StaffId, string(a.Type), a.StartDate, a.EndDate, a.IsActive).Scan(&id)
	if err != nil {
		return Assignment{}, mapWriteError("insert", err)
	}
	return r.Get(ctx, id)
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx, `SELECT `+assignmentColumns+assignmentFrom+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrAssignmentNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not query assignment: %w", err)
		log.Error(err)
		return Assignment{}, err
	}
	return a, nil
}

func (r *RepositoryImpl) List(ctx context.Context, filter Filter) ([]Assignment, error) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 2)
	if filter.ClientId > 0 {
		args = append(args, filter.ClientId)
		conditions = append(conditions, "a.client_id = $"+strconv.Itoa(len(args)))
	}
	if filter.StaffId > 0 {
		args = append(args, filter.StaffId)
		conditions = append(conditions, "a.staff_id = $"+strconv.Itoa(len(args)))
	}
	if !filter.IncludeInactive {
		conditions = append(conditions, "a.is_active")
	}
	query := `SELECT ` + assignmentColumns + assignmentFrom
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.created_at DESC, a.id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		err = fmt.Errorf("could not query assignments: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	assignments := make([]Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			err = fmt.Errorf("could not scan assignment: %w", err)
			log.Error(err)
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, a Assignment) (Assignment, error) {
	tag, err := r.db.Exec(ctx, `UPDATE client_staff_assignments SET client_id = $1, staff_id = $2, assignment_type = $3,
				start_date = $4, end_date = $5, is_active = $6, updated_at = NOW()
			WHERE id = $7`,
		a.ClientId, a.StaffId, string(a.Type), a.StartDate, a.EndDate, a.IsActive, a.Id)
	if err != nil {
		return Assignment{}, mapWriteError("update", err)
	}
	if tag.RowsAffected() == 0 {
		return Assignment{}, ErrAssignmentNotFound
	}
	return r.Get(ctx, a.Id)
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM client_staff_assignments WHERE id = $1`, id)
	if err != nil {
		err = fmt.Errorf("could not delete assignment: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}
