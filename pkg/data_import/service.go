package data_import

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homecare-coop/backoffice/internal/event_bus"
	"github.com/homecare-coop/backoffice/internal/utils"
	log "github.com/sirupsen/logrus"
)

// ErrImportFailed wraps a fatal file error. The import record is stored as failed.
var ErrImportFailed = errors.New("import failed")

type Service interface {
	// Import stores the rows of an uploaded spreadsheet under a new import record.
	Import(ctx context.Context, filename string, data []byte, uploadedBy *int) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Rows(ctx context.Context, importId string) ([]Row, error)
	MarkSynced(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
	clock    utils.Clock
	location *time.Location
}

func NewService(repo Repository, eventBus *event_bus.EventBus, clock utils.Clock, location *time.Location) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus, clock: clock, location: location}
}

func (s *ServiceImpl) Import(ctx context.Context, filename string, data []byte, uploadedBy *int) (Record, error) {
	rec, err := s.repo.Create(ctx, Record{
		Id:         uuid.NewString(),
		Filename:   filename,
		UploadedBy: uploadedBy,
		Status:     StatusProcessing,
		UploadedAt: s.clock.Now(),
	})
	if err != nil {
		return Record{}, err
	}
	log.Infof("Importing %s as %s", filename, rec.Id)

	table, err := readTable(filename, data)
	if err != nil {
		return s.fail(ctx, rec, err)
	}
	rows, total, rowErrors, err := buildRows(table, s.location)
	if err != nil {
		return s.fail(ctx, rec, err)
	}
	processed, err := s.repo.SaveRows(ctx, rec.Id, rows)
	if err != nil {
		return s.fail(ctx, rec, err)
	}

	now := s.clock.Now()
	rec.Status = StatusCompleted
	rec.TotalRows = total
	rec.ProcessedRows = processed
	rec.ErrorLog = rowErrors
	rec.CompletedAt = &now
	rec, err = s.repo.Complete(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	log.Infof("Import %s completed: %d rows, %d cell errors", rec.Id, rec.ProcessedRows, len(rec.ErrorLog))
	s.publish(ctx, rec)
	return rec, nil
}

func (s *ServiceImpl) fail(ctx context.Context, rec Record, cause error) (Record, error) {
	log.Warnf("Import %s of %s failed: %v", rec.Id, rec.Filename, cause)
	now := s.clock.Now()
	rec.Status = StatusFailed
	rec.ErrorLog = []RowError{{Row: 0, Message: cause.Error()}}
	rec.CompletedAt = &now
	failed, err := s.repo.Complete(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, failed)
	return failed, fmt.Errorf("%w: %w", ErrImportFailed, cause)
}

func (s *ServiceImpl) publish(ctx context.Context, rec Record) {
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.DataImportCompletedType, event_bus.DataImportCompleted{
		ImportId:      rec.Id,
		Filename:      rec.Filename,
		Status:        string(rec.Status),
		TotalRows:     rec.TotalRows,
		ProcessedRows: rec.ProcessedRows,
		ErrorCount:    len(rec.ErrorLog),
	}))
	if err != nil {
		log.Warnf("import %s stored but event handling failed: %v", rec.Id, err)
	}
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Record, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

func (s *ServiceImpl) Rows(ctx context.Context, importId string) ([]Row, error) {
	if _, err := s.repo.Get(ctx, importId); err != nil {
		return nil, err
	}
	return s.repo.Rows(ctx, importId)
}

func (s *ServiceImpl) MarkSynced(ctx context.Context, id string) error {
	return s.repo.SetSyncStatus(ctx, id, SyncSynced)
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
