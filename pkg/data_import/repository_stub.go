package data_import

import (
	"context"
	"sort"
)

type RepositoryStub struct {
	nextRowId int
	records   map[string]Record
	rows      map[string][]Row
}

func NewRepositoryStub() *RepositoryStub {
	s := &RepositoryStub{}
	s.Cleanup()
	return s
}

func (s *RepositoryStub) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.ErrorLog == nil {
		rec.ErrorLog = []RowError{}
	}
	rec.SyncStatus = SyncPending
	s.records[rec.Id] = rec
	return rec, nil
}

func (s *RepositoryStub) Complete(ctx context.Context, rec Record) (Record, error) {
	existing, ok := s.records[rec.Id]
	if !ok {
		return Record{}, ErrImportNotFound
	}
	existing.Status = rec.Status
	existing.TotalRows = rec.TotalRows
	existing.ProcessedRows = rec.ProcessedRows
	existing.ErrorLog = rec.ErrorLog
	existing.CompletedAt = rec.CompletedAt
	s.records[rec.Id] = existing
	return existing, nil
}

func (s *RepositoryStub) SaveRows(ctx context.Context, importId string, rows []Row) (int, error) {
	for _, row := range rows {
		s.nextRowId++
		row.Id = s.nextRowId
		row.ImportId = importId
		s.rows[importId] = append(s.rows[importId], row)
	}
	return len(rows), nil
}

func (s *RepositoryStub) Get(ctx context.Context, id string) (Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrImportNotFound
	}
	return rec, nil
}

func (s *RepositoryStub) List(ctx context.Context) ([]Record, error) {
	records := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UploadedAt.After(records[j].UploadedAt) })
	return records, nil
}

func (s *RepositoryStub) Rows(ctx context.Context, importId string) ([]Row, error) {
	rows := s.rows[importId]
	if rows == nil {
		return []Row{}, nil
	}
	return rows, nil
}

func (s *RepositoryStub) SetSyncStatus(ctx context.Context, id string, status SyncStatus) error {
	rec, ok := s.records[id]
	if !ok {
		return ErrImportNotFound
	}
	rec.SyncStatus = status
	s.records[id] = rec
	return nil
}

func (s *RepositoryStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return ErrImportNotFound
	}
	delete(s.records, id)
	delete(s.rows, id)
	return nil
}

func (s *RepositoryStub) Cleanup() {
	s.nextRowId = 0
	s.records = map[string]Record{}
	s.rows = map[string][]Row{}
}
