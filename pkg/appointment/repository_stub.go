package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type RepositoryStub struct {
	mu           sync.Mutex
	appointments map[string]Appointment
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{appointments: make(map[string]Appointment)}
}

func (s *RepositoryStub) Create(ctx context.Context, appointment Appointment) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointment.Id = uuid.NewString()
	s.appointments[appointment.Id] = appointment
	return appointment, nil
}

func (s *RepositoryStub) Get(ctx context.Context, id string) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	return a, nil
}

func (s *RepositoryStub) List(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	return s.filter(func(a Appointment) bool {
		return !a.Start.After(to) && !a.End.Before(from)
	}), nil
}

func (s *RepositoryStub) StartingBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	return s.filter(func(a Appointment) bool {
		return !a.Start.Before(from) && a.Start.Before(to)
	}), nil
}

func (s *RepositoryStub) filter(keep func(Appointment) bool) []Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Appointment, 0)
	for _, a := range s.appointments {
		if keep(a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Start.Equal(result[j].Start) {
			return result[i].Id < result[j].Id
		}
		return result[i].Start.Before(result[j].Start)
	})
	return result
}

func (s *RepositoryStub) Update(ctx context.Context, appointment Appointment) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[appointment.Id]; !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	s.appointments[appointment.Id] = appointment
	return appointment, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(s.appointments, id)
	return nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = make(map[string]Appointment)
}
