package integrity

import (
	"context"
	"fmt"

	"github.com/homecare-coop/backoffice/pkg/data_import"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// ImportedRows returns the rows of every completed import.
	ImportedRows(ctx context.Context) ([]ImportedRow, error)
	LoggedServices(ctx context.Context) ([]LoggedService, error)
	ImportCounts(ctx context.Context) ([]ImportCount, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) ImportedRows(ctx context.Context) ([]ImportedRow, error) {
	query := `SELECT ` + data_import.RowColumns + `, d.filename, d.uploaded_at
			  FROM import_rows
			  JOIN (SELECT id AS data_import_id, filename, uploaded_at
			  		FROM data_imports WHERE status = 'completed') d ON d.data_import_id = import_rows.import_id
			  ORDER BY d.uploaded_at, import_rows.import_id, import_rows.row_number`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		err = fmt.Errorf("could not query imported rows: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	result := make([]ImportedRow, 0)
	for rows.Next() {
		var imported ImportedRow
		row, err := data_import.ScanRow(rows, &imported.Filename, &imported.UploadedAt)
		if err != nil {
			err = fmt.Errorf("could not scan imported row: %w", err)
			log.Error(err)
			return nil, err
		}
		imported.Row = row
		result = append(result, imported)
	}
	return result, rows.Err()
}

func (r *RepositoryImpl) LoggedServices(ctx context.Context) ([]LoggedService, error) {
	query := `SELECT t.id, COALESCE(c.external_id, ''), t.service_date, t.scheduled_start, t.service_type,
				COALESCE(t.external_identifier, ''), COALESCE(t.import_id::text, '')
			  FROM time_logs t
			  JOIN clients c ON c.id = t.client_id
			  ORDER BY t.service_date, t.id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		err = fmt.Errorf("could not query time logs: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	result := make([]LoggedService, 0)
	for rows.Next() {
		var l LoggedService
		if err := rows.Scan(&l.Id, &l.ClientExternalId, &l.ServiceDate, &l.ScheduledStart, &l.ServiceType,
			&l.ExternalIdentifier, &l.ImportId); err != nil {
			err = fmt.Errorf("could not scan time log: %w", err)
			log.Error(err)
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (r *RepositoryImpl) ImportCounts(ctx context.Context) ([]ImportCount, error) {
	query := `SELECT d.id::text, d.filename, d.uploaded_at,
				(SELECT COUNT(*) FROM import_rows r WHERE r.import_id = d.id),
				(SELECT COUNT(*) FROM time_logs t WHERE t.import_id = d.id)
			  FROM data_imports d
			  WHERE d.status = 'completed'
			  ORDER BY d.uploaded_at, d.id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		err = fmt.Errorf("could not query import counts: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	result := make([]ImportCount, 0)
	for rows.Next() {
		var c ImportCount
		if err := rows.Scan(&c.ImportId, &c.Filename, &c.UploadedAt, &c.Rows, &c.TimeLogs); err != nil {
			err = fmt.Errorf("could not scan import count: %w", err)
			log.Error(err)
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
