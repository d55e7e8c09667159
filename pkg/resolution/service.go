package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/homecare-coop/backoffice/pkg/client"
	"github.com/homecare-coop/backoffice/pkg/data_import"
	"github.com/homecare-coop/backoffice/pkg/staff"
	"github.com/homecare-coop/backoffice/pkg/time_log"
	log "github.com/sirupsen/logrus"
)

var ErrImportNotCompleted = errors.New("only completed imports can be synchronized")

type ImportReader interface {
	Get(ctx context.Context, id string) (data_import.Record, error)
	Rows(ctx context.Context, importId string) ([]data_import.Row, error)
	MarkSynced(ctx context.Context, id string) error
}

type ClientStore interface {
	List(ctx context.Context, filter client.Filter) ([]client.Client, error)
	Create(ctx context.Context, c client.Client) (client.Client, error)
}

type StaffStore interface {
	List(ctx context.Context, filter staff.Filter) ([]staff.Staff, error)
	CreateWithDefaultRate(ctx context.Context, s staff.Staff, effectiveFrom time.Time) (staff.Staff, error)
}

type TimeLogStore interface {
	Create(ctx context.Context, t time_log.TimeLog) (time_log.TimeLog, error)
	ExistsByExternalIdentifier(ctx context.Context, identifier string) (bool, error)
	ExistsByImportRow(ctx context.Context, importRowId int) (bool, error)
}

type SyncOptions struct {
	// CreateMissing registers clients and staff that no row could be matched to.
	CreateMissing bool
	// StaffType is used for staff created by the sync. Defaults to internal.
	StaffType staff.Type
}

type SyncError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type SyncResult struct {
	ImportId        string
	TimeLogsCreated int
	ClientsCreated  int
	StaffCreated    int
	Skipped         int
	Errors          []SyncError
}

type Service interface {
	// Preview matches every row of an import without writing anything.
	Preview(ctx context.Context, importId string) ([]Resolution, Summary, error)
	// Sync turns the resolved rows of an import into time logs.
	Sync(ctx context.Context, importId string, opts SyncOptions) (SyncResult, error)
}

type ServiceImpl struct {
	imports  ImportReader
	clients  ClientStore
	staff    StaffStore
	timeLogs TimeLogStore
	location *time.Location
}

func NewService(imports ImportReader, clients ClientStore, staff StaffStore, timeLogs TimeLogStore,
	location *time.Location) *ServiceImpl {
	return &ServiceImpl{imports: imports, clients: clients, staff: staff, timeLogs: timeLogs, location: location}
}

func (s *ServiceImpl) loadIndex(ctx context.Context) (*index, error) {
	clients, err := s.clients.List(ctx, client.Filter{})
	if err != nil {
		return nil, err
	}
	members, err := s.staff.List(ctx, staff.Filter{})
	if err != nil {
		return nil, err
	}
	return newIndex(clients, members), nil
}

func (s *ServiceImpl) Preview(ctx context.Context, importId string) ([]Resolution, Summary, error) {
	rows, err := s.imports.Rows(ctx, importId)
	if err != nil {
		return nil, Summary{}, err
	}
	ix, err := s.loadIndex(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	resolutions := make([]Resolution, 0, len(rows))
	for _, row := range rows {
		resolutions = append(resolutions, ix.resolve(row))
	}
	return resolutions, summarize(resolutions), nil
}

func (s *ServiceImpl) Sync(ctx context.Context, importId string, opts SyncOptions) (SyncResult, error) {
	rec, err := s.imports.Get(ctx, importId)
	if err != nil {
		return SyncResult{}, err
	}
	if rec.Status != data_import.StatusCompleted {
		return SyncResult{}, fmt.Errorf("%w: import is %s", ErrImportNotCompleted, rec.Status)
	}
	rows, err := s.imports.Rows(ctx, importId)
	if err != nil {
		return SyncResult{}, err
	}
	ix, err := s.loadIndex(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	if opts.StaffType == "" {
		opts.StaffType = staff.TypeInternal
	}

	run := syncRun{service: s, ix: ix, opts: opts, rateFrom: earliestDate(rows, s.location, rec.UploadedAt),
		result: SyncResult{ImportId: importId, Errors: []SyncError{}}}
	for _, row := range rows {
		if err := run.row(ctx, row); err != nil {
			return SyncResult{}, err
		}
	}

	if err := s.imports.MarkSynced(ctx, importId); err != nil {
		return SyncResult{}, err
	}
	log.Infof("Synced import %s: %d time logs, %d clients and %d staff created, %d skipped, %d errors",
		importId, run.result.TimeLogsCreated, run.result.ClientsCreated, run.result.StaffCreated, run.result.Skipped,
		len(run.result.Errors))
	return run.result, nil
}

// earliestDate is the first service day of the import, used as the start of default rates for created staff.
func earliestDate(rows []data_import.Row, loc *time.Location, fallback time.Time) time.Time {
	earliest := fallback
	for _, row := range rows {
		if row.ScheduledStart != nil && row.ScheduledStart.Before(earliest) {
			earliest = *row.ScheduledStart
		}
	}
	return utils.DateOf(earliest.In(loc))
}

type syncRun struct {
	service  *ServiceImpl
	ix       *index
	opts     SyncOptions
	rateFrom time.Time
	result   SyncResult
}

func (r *syncRun) fail(row data_import.Row, format string, args ...any) {
	r.result.Errors = append(r.result.Errors, SyncError{Row: row.RowNumber, Message: fmt.Sprintf(format, args...)})
}

// row processes one import row. Only infrastructure failures are returned; row problems are collected.
func (r *syncRun) row(ctx context.Context, row data_import.Row) error {
	synced, err := r.alreadySynced(ctx, row)
	if err != nil {
		return err
	}
	if synced {
		r.result.Skipped++
		return nil
	}
	if row.ScheduledStart == nil {
		r.fail(row, "row has no start time")
		return nil
	}

	res := r.ix.resolve(row)
	if res.ClientId == 0 && r.opts.CreateMissing {
		created, ok, err := r.createClient(ctx, row)
		if err != nil || !ok {
			return err
		}
		res.ClientId = created
	}
	if res.StaffId == 0 && r.opts.CreateMissing {
		created, ok, err := r.createStaff(ctx, row)
		if err != nil || !ok {
			return err
		}
		res.StaffId = created
	}
	if res.ClientId == 0 {
		r.fail(row, "no client matches %q", row.ClientFirstName+" "+row.ClientLastName)
		return nil
	}
	if res.StaffId == 0 {
		r.fail(row, "no staff member matches %q", row.OperatorFirstName+" "+row.OperatorLastName)
		return nil
	}

	rowId := row.Id
	entry := time_log.TimeLog{
		ClientId:           res.ClientId,
		StaffId:            res.StaffId,
		ServiceDate:        utils.DateOf(row.ScheduledStart.In(r.service.location)),
		ScheduledStart:     row.ScheduledStart,
		ScheduledEnd:       row.ScheduledEnd,
		ServiceType:        row.ServiceType,
		ImportId:           row.ImportId,
		ImportRowId:        &rowId,
		ExternalIdentifier: row.Identifier,
	}
	if row.Duration != nil {
		entry.Hours = *row.Duration
	}
	if row.Kilometers != nil {
		entry.Mileage = *row.Kilometers
	}

	_, err = r.service.timeLogs.Create(ctx, entry)
	switch {
	case errors.Is(err, time_log.ErrDuplicateIdentifier), errors.Is(err, time_log.ErrDuplicateImportRow):
		r.result.Skipped++
	case errors.Is(err, time_log.ErrTimeLogDataInvalid), errors.Is(err, time_log.ErrUnknownReference):
		r.fail(row, "%v", err)
	case err != nil:
		return err
	default:
		r.result.TimeLogsCreated++
	}
	return nil
}

// alreadySynced matches the row to an existing log by its import row, then by its identifier.
// Rows without an identifier are only recognised by the import row.
func (r *syncRun) alreadySynced(ctx context.Context, row data_import.Row) (bool, error) {
	exists, err := r.service.timeLogs.ExistsByImportRow(ctx, row.Id)
	if err != nil || exists {
		return exists, err
	}
	if row.Identifier == "" {
		return false, nil
	}
	return r.service.timeLogs.ExistsByExternalIdentifier(ctx, row.Identifier)
}

func (r *syncRun) createClient(ctx context.Context, row data_import.Row) (int, bool, error) {
	created, err := r.service.clients.Create(ctx, client.Client{
		FirstName:   row.ClientFirstName,
		LastName:    row.ClientLastName,
		ExternalId:  row.ClientExternalId,
		TaxCode:     row.TaxCode,
		ServiceType: row.ServiceType,
		Status:      client.StatusActive,
	})
	if errors.Is(err, client.ErrClientDataInvalid) || errors.Is(err, client.ErrDuplicateExternalId) {
		r.fail(row, "could not create client: %v", err)
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	r.ix.addClient(created)
	r.result.ClientsCreated++
	return created.Id, true, nil
}

func (r *syncRun) createStaff(ctx context.Context, row data_import.Row) (int, bool, error) {
	created, err := r.service.staff.CreateWithDefaultRate(ctx, staff.Staff{
		FirstName:  row.OperatorFirstName,
		LastName:   row.OperatorLastName,
		ExternalId: row.OperatorExternalId,
		Type:       r.opts.StaffType,
		Status:     staff.StatusActive,
	}, r.rateFrom)
	if errors.Is(err, staff.ErrStaffDataInvalid) || errors.Is(err, staff.ErrDuplicateExternalId) {
		r.fail(row, "could not create staff member: %v", err)
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	r.ix.addStaff(created)
	r.result.StaffCreated++
	return created.Id, true, nil
}
