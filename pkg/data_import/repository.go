package data_import

import (
	"context"
	"errors"
	"fmt"

	"github.com/homecare-coop/backoffice/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrImportNotFound = errors.New("import not found")

type Repository interface {
	Create(ctx context.Context, rec Record) (Record, error)
	// Complete stores the final status, counters and error log of an import.
	Complete(ctx context.Context, rec Record) (Record, error)
	SaveRows(ctx context.Context, importId string, rows []Row) (int, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Rows(ctx context.Context, importId string) ([]Row, error)
	SetSyncStatus(ctx context.Context, id string, status SyncStatus) error
	Delete(ctx context.Context, id string) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const recordColumns = `id::text, filename, uploaded_by, status, total_rows, processed_rows, error_log, sync_status,
	uploaded_at, completed_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var status, syncStatus string
	err := row.Scan(&rec.Id, &rec.Filename, &rec.UploadedBy, &status, &rec.TotalRows, &rec.ProcessedRows, &rec.ErrorLog,
		&syncStatus, &rec.UploadedAt, &rec.CompletedAt)
	rec.Status = Status(status)
	rec.SyncStatus = SyncStatus(syncStatus)
	if rec.ErrorLog == nil {
		rec.ErrorLog = []RowError{}
	}
	return rec, err
}

func (r *RepositoryImpl) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.ErrorLog == nil {
		rec.ErrorLog = []RowError{}
	}
	query := `INSERT INTO data_imports (id, filename, uploaded_by, status, error_log, sync_status, uploaded_at)
			  VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + recordColumns
	created, err := scanRecord(r.db.QueryRow(ctx, query, rec.Id, rec.Filename, rec.UploadedBy, string(rec.Status),
		rec.ErrorLog, string(SyncPending), rec.UploadedAt))
	if err != nil {
		err = fmt.Errorf("could not insert import record: %w", err)
		log.Error(err)
		return Record{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) Complete(ctx context.Context, rec Record) (Record, error) {
	if rec.ErrorLog == nil {
		rec.ErrorLog = []RowError{}
	}
	query := `UPDATE data_imports
			  SET status = $1, total_rows = $2, processed_rows = $3, error_log = $4, completed_at = $5
			  WHERE id = $6::uuid
			  RETURNING ` + recordColumns
	updated, err := scanRecord(r.db.QueryRow(ctx, query, string(rec.Status), rec.TotalRows, rec.ProcessedRows,
		rec.ErrorLog, rec.CompletedAt, rec.Id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrImportNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not complete import record: %w", err)
		log.Error(err)
		return Record{}, err
	}
	return updated, nil
}

func (r *RepositoryImpl) SaveRows(ctx context.Context, importId string, rows []Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`INSERT INTO import_rows (import_id, row_number, identifier, client_external_id, client_first_name,
					 	client_last_name, tax_code, operator_external_id, operator_first_name, operator_last_name,
					 	service_type, scheduled_start, scheduled_end, duration, kilometers, value, raw)
					 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			importId, row.RowNumber, database.NullIfEmpty(row.Identifier), database.NullIfEmpty(row.ClientExternalId),
			database.NullIfEmpty(row.ClientFirstName), database.NullIfEmpty(row.ClientLastName), database.NullIfEmpty(row.TaxCode),
			database.NullIfEmpty(row.OperatorExternalId), database.NullIfEmpty(row.OperatorFirstName), database.NullIfEmpty(row.OperatorLastName),
			database.NullIfEmpty(row.ServiceType), row.ScheduledStart, row.ScheduledEnd, row.Duration, row.Kilometers, row.Value,
			row.Raw)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		err = fmt.Errorf("could not insert import rows: %w", err)
		log.Error(err)
		return 0, err
	}
	return len(rows), nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM data_imports WHERE id = $1::uuid`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrImportNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not query import record: %w", err)
		log.Error(err)
		return Record{}, err
	}
	return rec, nil
}

func (r *RepositoryImpl) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+recordColumns+` FROM data_imports ORDER BY uploaded_at DESC, id`)
	if err != nil {
		err = fmt.Errorf("could not query import records: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			err = fmt.Errorf("could not scan import record: %w", err)
			log.Error(err)
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RowColumns is the import_rows select list read by ScanRow.
const RowColumns = `id, import_id::text, row_number, COALESCE(identifier, ''), COALESCE(client_external_id, ''),
	COALESCE(client_first_name, ''), COALESCE(client_last_name, ''), COALESCE(tax_code, ''),
	COALESCE(operator_external_id, ''), COALESCE(operator_first_name, ''), COALESCE(operator_last_name, ''),
	COALESCE(service_type, ''), scheduled_start, scheduled_end, duration, kilometers, value, raw`

// ScanRow reads a row selected with RowColumns. extra receives any columns selected after them.
func ScanRow(row pgx.Row, extra ...any) (Row, error) {
	var r Row
	dest := []any{&r.Id, &r.ImportId, &r.RowNumber, &r.Identifier, &r.ClientExternalId, &r.ClientFirstName,
		&r.ClientLastName, &r.TaxCode, &r.OperatorExternalId, &r.OperatorFirstName, &r.OperatorLastName, &r.ServiceType,
		&r.ScheduledStart, &r.ScheduledEnd, &r.Duration, &r.Kilometers, &r.Value, &r.Raw}
	err := row.Scan(append(dest, extra...)...)
	return r, err
}

func (r *RepositoryImpl) Rows(ctx context.Context, importId string) ([]Row, error) {
	rows, err := r.db.Query(ctx, `SELECT `+RowColumns+` FROM import_rows WHERE import_id = $1::uuid ORDER BY row_number`,
		importId)
	if err != nil {
		err = fmt.Errorf("could not query import rows: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	result := make([]Row, 0)
	for rows.Next() {
		row, err := ScanRow(rows)
		if err != nil {
			err = fmt.Errorf("could not scan import row: %w", err)
			log.Error(err)
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *RepositoryImpl) SetSyncStatus(ctx context.Context, id string, status SyncStatus) error {
	result, err := r.db.Exec(ctx, "UPDATE data_imports SET sync_status = $1 WHERE id = $2::uuid", string(status), id)
	if err != nil {
		err = fmt.Errorf("could not update import sync status: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrImportNotFound
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, "DELETE FROM data_imports WHERE id = $1::uuid", id)
	if err != nil {
		err = fmt.Errorf("could not delete import: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrImportNotFound
	}
	return nil
}
