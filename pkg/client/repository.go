package client

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

var ErrClientNotFound = errors.New("client not found")
var ErrDuplicateExternalId = errors.New("a client with this external id already exists")
var ErrClientInUse = errors.New("client has time logs or allocations")

type Repository interface {
	Create(ctx context.Context, client Client) (Client, error)
	Get(ctx context.Context, id int) (Client, error)
	List(ctx context.Context, filter Filter) ([]Client, error)
	Update(ctx context.Context, client Client) (Client, error)
	Delete(ctx context.Context, id int) error
	FindByExternalId(ctx context.Context, externalId string) (Client, error)
	FindByTaxCode(ctx context.Context, taxCode string) (Client, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const clientColumns = `id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''),
	date_of_birth, service_type, status, monthly_budget, COALESCE(notes, ''), COALESCE(external_id, ''),
	COALESCE(tax_code, ''), created_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	var status string
	var dateOfBirth *time.Time
	err := row.Scan(&c.Id, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &dateOfBirth, &c.ServiceType,
		&status, &c.MonthlyBudget, &c.Notes, &c.ExternalId, &c.TaxCode, &c.CreatedAt)
	c.Status = Status(status)
	c.DateOfBirth = dateOfBirth
	return c, err
}

func (r *RepositoryImpl) Create(ctx context.Context, client Client) (Client, error) {
	query := `INSERT INTO clients (first_name, last_name, email, phone, address, date_of_birth, service_type, status,
                     monthly_budget, notes, external_id, tax_code)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING ` + clientColumns
	created, err := scanClient(r.db.QueryRow(ctx, query,
		client.FirstName,
		client.LastName,
		database.NullIfEmpty(client.Email),
		database.NullIfEmpty(client.Phone),
		database.NullIfEmpty(client.Address),
		client.DateOfBirth,
		client.ServiceType,
		string(client.Status),
		client.MonthlyBudget,
		database.NullIfEmpty(client.Notes),
		database.NullIfEmpty(client.ExternalId),
		database.NullIfEmpty(client.TaxCode),
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Client{}, ErrDuplicateExternalId
		}
		err = fmt.Errorf("could not insert client: %w", err)
		log.Error(err)
		return Client{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) getOne(ctx context.Context, where string, arg any) (Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE ` + where + ` ORDER BY id LIMIT 1`
	c, err := scanClient(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrClientNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not query client: %w", err)
		log.Error(err)
		return Client{}, err
	}
	return c, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Client, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *RepositoryImpl) FindByExternalId(ctx context.Context, externalId string) (Client, error) {
	return r.getOne(ctx, "external_id = $1", externalId)
}

func (r *RepositoryImpl) FindByTaxCode(ctx context.Context, taxCode string) (Client, error) {
	return r.getOne(ctx, "upper(tax_code) = upper($1)", taxCode)
}

func (r *RepositoryImpl) List(ctx context.Context, filter Filter) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients
			  WHERE ($1 = '' OR status = $1)
			    AND ($2 = '' OR first_name ILIKE '%' || $2 || '%' OR last_name ILIKE '%' || $2 || '%'
			         OR external_id ILIKE '%' || $2 || '%' OR tax_code ILIKE '%' || $2 || '%')
			  ORDER BY last_name, first_name, id`
	rows, err := r.db.Query(ctx, query, string(filter.Status), filter.Search)
	if err != nil {
		err = fmt.Errorf("could not query clients: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	clients := make([]Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			err = fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return clients, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, client Client) (Client, error) {
	query := `UPDATE clients SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5,
                date_of_birth = $6, service_type = $7, status = $8, monthly_budget = $9, notes = $10,
                external_id = $11, tax_code = $12, updated_at = NOW()
			  WHERE id = $13 RETURNING ` + clientColumns
	updated, err := scanClient(r.db.QueryRow(ctx, query,
		client.FirstName,
		client.LastName,
		database.NullIfEmpty(client.Email),
		database.NullIfEmpty(client.Phone),
		database.NullIfEmpty(client.Address),
		client.DateOfBirth,
		client.ServiceType,
		string(client.Status),
		client.MonthlyBudget,
		database.NullIfEmpty(client.Notes),
		database.NullIfEmpty(client.ExternalId),
		database.NullIfEmpty(client.TaxCode),
		client.Id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrClientNotFound
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Client{}, ErrDuplicateExternalId
		}
		err = fmt.Errorf("could not update client: %w", err)
		log.Error(err)
		return Client{}, err
	}
	return updated, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrClientInUse
		}
		err = fmt.Errorf("could not delete client: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *RepositoryImpl) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM clients WHERE status = $1", string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("could not count clients: %w", err)
	}
	return count, nil
}
