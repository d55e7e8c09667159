package integrity

import "context"

type RepositoryStub struct {
	Rows   []ImportedRow
	Logs   []LoggedService
	Counts []ImportCount
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{}
}

func (s *RepositoryStub) ImportedRows(ctx context.Context) ([]ImportedRow, error) {
	return s.Rows, nil
}

func (s *RepositoryStub) LoggedServices(ctx context.Context) ([]LoggedService, error) {
	return s.Logs, nil
}

func (s *RepositoryStub) ImportCounts(ctx context.Context) ([]ImportCount, error) {
	return s.Counts, nil
}

func (s *RepositoryStub) Cleanup() {
	s.Rows = nil
	s.Logs = nil
	s.Counts = nil
}
