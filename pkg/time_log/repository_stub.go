package time_log

import (
	"context"
	"sort"
)

type RepositoryStub struct {
	nextId int
	logs   map[int]TimeLog
	// Locked marks ids that IsLocked reports as compensated.
	Locked map[int]bool
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{logs: map[int]TimeLog{}, Locked: map[int]bool{}}
}

func (s *RepositoryStub) Create(ctx context.Context, timeLog TimeLog) (TimeLog, error) {
	if timeLog.ExternalIdentifier != "" {
		if exists, _ := s.ExistsByExternalIdentifier(ctx, timeLog.ExternalIdentifier); exists {
			return TimeLog{}, ErrDuplicateIdentifier
		}
	}
	if timeLog.ImportRowId != nil {
		if exists, _ := s.ExistsByImportRow(ctx, *timeLog.ImportRowId); exists {
			return TimeLog{}, ErrDuplicateImportRow
		}
	}
	s.nextId++
	timeLog.Id = s.nextId
	s.logs[timeLog.Id] = timeLog
	return timeLog, nil
}

func (s *RepositoryStub) Get(ctx context.Context, id int) (TimeLog, error) {
	t, ok := s.logs[id]
	if !ok {
		return TimeLog{}, ErrTimeLogNotFound
	}
	return t, nil
}

func (s *RepositoryStub) List(ctx context.Context, filter Filter) ([]TimeLog, error) {
	result := make([]TimeLog, 0)
	for _, t := range s.logs {
		if filter.StaffId != 0 && t.StaffId != filter.StaffId {
			continue
		}
		if filter.ClientId != 0 && t.ClientId != filter.ClientId {
			continue
		}
		if !filter.From.IsZero() && t.ServiceDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && t.ServiceDate.After(filter.To) {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ServiceDate.Equal(result[j].ServiceDate) {
			return result[i].ServiceDate.Before(result[j].ServiceDate)
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (s *RepositoryStub) Update(ctx context.Context, timeLog TimeLog) (TimeLog, error) {
	existing, ok := s.logs[timeLog.Id]
	if !ok {
		return TimeLog{}, ErrTimeLogNotFound
	}
	timeLog.ImportId = existing.ImportId
	timeLog.ImportRowId = existing.ImportRowId
	timeLog.ExternalIdentifier = existing.ExternalIdentifier
	s.logs[timeLog.Id] = timeLog
	return timeLog, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, id int) error {
	if _, ok := s.logs[id]; !ok {
		return ErrTimeLogNotFound
	}
	delete(s.logs, id)
	return nil
}

func (s *RepositoryStub) ExistsByExternalIdentifier(ctx context.Context, identifier string) (bool, error) {
	for _, t := range s.logs {
		if t.ExternalIdentifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

func (s *RepositoryStub) ExistsByImportRow(ctx context.Context, importRowId int) (bool, error) {
	for _, t := range s.logs {
		if t.ImportRowId != nil && *t.ImportRowId == importRowId {
			return true, nil
		}
	}
	return false, nil
}

func (s *RepositoryStub) IsLocked(ctx context.Context, id int) (bool, error) {
	return s.Locked[id], nil
}

func (s *RepositoryStub) Cleanup() {
	s.nextId = 0
	s.logs = map[int]TimeLog{}
	s.Locked = map[int]bool{}
}
