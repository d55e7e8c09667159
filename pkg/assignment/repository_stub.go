package assignment

import (
	"context"
	"sort"
	"sync"
	"time"
)

type RepositoryStub struct {
	mu          sync.Mutex
	nextId      int
	assignments map[int]Assignment
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{assignments: make(map[int]Assignment)}
}

// conflicts reports another active assignment of the same client and staff member.
func (s *RepositoryStub) conflicts(a Assignment) bool {
	if !a.IsActive {
		return false
	}
	for _, existing := range s.assignments {
		if existing.Id != a.Id && existing.IsActive && existing.ClientId == a.ClientId && existing.StaffId == a.StaffId {
			return true
		}
	}
	return false
}

func (s *RepositoryStub) Create(ctx context.Context, a Assignment) (Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts(a) {
		return Assignment{}, ErrDuplicateAssignment
	}
	s.nextId++
	a.Id = s.nextId
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	s.assignments[a.Id] = a
	return a, nil
}

func (s *RepositoryStub) Get(ctx context.Context, id int) (Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, nil
}

func (s *RepositoryStub) List(ctx context.Context, filter Filter) ([]Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Assignment, 0)
	for _, a := range s.assignments {
		if filter.ClientId > 0 && a.ClientId != filter.ClientId {
			continue
		}
		if filter.StaffId > 0 && a.StaffId != filter.StaffId {
			continue
		}
		if !filter.IncludeInactive && !a.IsActive {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id > result[j].Id })
	return result, nil
}

func (s *RepositoryStub) Update(ctx context.Context, a Assignment) (Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.assignments[a.Id]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	if s.conflicts(a) {
		return Assignment{}, ErrDuplicateAssignment
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now()
	s.assignments[a.Id] = a
	return a, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[id]; !ok {
		return ErrAssignmentNotFound
	}
	delete(s.assignments, id)
	return nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId = 0
	s.assignments = make(map[int]Assignment)
}
