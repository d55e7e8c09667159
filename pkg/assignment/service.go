package assignment

import (
	"context"
	"errors"
	"fmt"
)

var ErrAssignmentDataInvalid = errors.New("invalid assignment data")

type Service interface {
	Create(ctx context.Context, a Assignment) (Assignment, error)
	Get(ctx context.Context, id int) (Assignment, error)
	List(ctx context.Context, filter Filter) ([]Assignment, error)
	// ListByClient returns the active assignments of the client.
	ListByClient(ctx context.Context, clientId int) ([]Assignment, error)
	// ListByStaff returns the active assignments of the staff member.
	ListByStaff(ctx context.Context, staffId int) ([]Assignment, error)
	Update(ctx context.Context, a Assignment) (Assignment, error)
	Delete(ctx context.Context, id int) error
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, a Assignment) (Assignment, error) {
	a = normalize(a)
	if err := validate(a); err != nil {
		return Assignment{}, err
	}
	return s.repo.Create(ctx, a)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Assignment, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context, filter Filter) ([]Assignment, error) {
	return s.repo.List(ctx, filter)
}

func (s *ServiceImpl) ListByClient(ctx context.Context, clientId int) ([]Assignment, error) {
	return s.repo.List(ctx, Filter{ClientId: clientId})
}

func (s *ServiceImpl) ListByStaff(ctx context.Context, staffId int) ([]Assignment, error) {
	return s.repo.List(ctx, Filter{StaffId: staffId})
}

func (s *ServiceImpl) Update(ctx context.Context, a Assignment) (Assignment, error) {
	if _, err := s.repo.Get(ctx, a.Id); err != nil {
		return Assignment{}, err
	}
	a = normalize(a)
	if err := validate(a); err != nil {
		return Assignment{}, err
	}
	return s.repo.Update(ctx, a)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func normalize(a Assignment) Assignment {
	if a.Type == "" {
		a.Type = TypePrimary
	}
	return a
}

func validate(a Assignment) error {
	if a.ClientId <= 0 || a.StaffId <= 0 {
		return fmt.Errorf("%w: client and staff member are required", ErrAssignmentDataInvalid)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown assignment type %q", ErrAssignmentDataInvalid, a.Type)
	}
	if a.StartDate != nil && a.EndDate != nil && a.EndDate.Before(*a.StartDate) {
		return fmt.Errorf("%w: end date is before start date", ErrAssignmentDataInvalid)
	}
	return nil
}
