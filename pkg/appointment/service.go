package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrAppointmentDataInvalid = errors.New("invalid appointment data")

type Service interface {
	Create(ctx context.Context, appointment Appointment) (Appointment, error)
	Get(ctx context.Context, id string) (Appointment, error)
	List(ctx context.Context, from, to time.Time) ([]Appointment, error)
	Update(ctx context.Context, appointment Appointment) (Appointment, error)
	Delete(ctx context.Context, id string) error
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, appointment Appointment) (Appointment, error) {
	appointment = normalize(appointment)
	if err := validate(appointment); err != nil {
		return Appointment{}, err
	}
	return s.repo.Create(ctx, appointment)
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: period ends before it starts", ErrAppointmentDataInvalid)
	}
	return s.repo.List(ctx, from, to)
}

func (s *ServiceImpl) Update(ctx context.Context, appointment Appointment) (Appointment, error) {
	if _, err := s.repo.Get(ctx, appointment.Id); err != nil {
		return Appointment{}, err
	}
	appointment = normalize(appointment)
	if err := validate(appointment); err != nil {
		return Appointment{}, err
	}
	return s.repo.Update(ctx, appointment)
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func normalize(a Appointment) Appointment {
	a.ServiceType = strings.TrimSpace(a.ServiceType)
	a.Notes = strings.TrimSpace(a.Notes)
	if a.StaffId != nil && *a.StaffId == 0 {
		a.StaffId = nil
	}
	return a
}

func validate(a Appointment) error {
	if a.ClientId <= 0 {
		return fmt.Errorf("%w: client is required", ErrAppointmentDataInvalid)
	}
	if a.Start.IsZero() || a.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrAppointmentDataInvalid)
	}
	if !a.End.After(a.Start) {
		return fmt.Errorf("%w: end must be after start", ErrAppointmentDataInvalid)
	}
	return nil
}
