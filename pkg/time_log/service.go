package time_log

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/shopspring/decimal"
)

var ErrTimeLogDataInvalid = errors.New("invalid time log")

var maxHoursPerLog = decimal.NewFromInt(24)

type Service interface {
	Create(ctx context.Context, timeLog TimeLog) (TimeLog, error)
	Get(ctx context.Context, id int) (TimeLog, error)
	List(ctx context.Context, filter Filter) ([]TimeLog, error)
	Update(ctx context.Context, timeLog TimeLog) (TimeLog, error)
	Delete(ctx context.Context, id int) error
	ExistsByExternalIdentifier(ctx context.Context, identifier string) (bool, error)
	// ExistsByImportRow reports whether a sync already turned the import row into a log.
	ExistsByImportRow(ctx context.Context, importRowId int) (bool, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, timeLog TimeLog) (TimeLog, error) {
	timeLog, err := prepare(timeLog)
	if err != nil {
		return TimeLog{}, err
	}
	return s.repo.Create(ctx, timeLog)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (TimeLog, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context, filter Filter) ([]TimeLog, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, fmt.Errorf("%w: 'to' is before 'from'", ErrTimeLogDataInvalid)
	}
	return s.repo.List(ctx, filter)
}

func (s *ServiceImpl) Update(ctx context.Context, timeLog TimeLog) (TimeLog, error) {
	if err := s.ensureUnlocked(ctx, timeLog.Id); err != nil {
		return TimeLog{}, err
	}
	timeLog, err := prepare(timeLog)
	if err != nil {
		return TimeLog{}, err
	}
	return s.repo.Update(ctx, timeLog)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	if err := s.ensureUnlocked(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *ServiceImpl) ExistsByExternalIdentifier(ctx context.Context, identifier string) (bool, error) {
	return s.repo.ExistsByExternalIdentifier(ctx, strings.TrimSpace(identifier))
}

func (s *ServiceImpl) ExistsByImportRow(ctx context.Context, importRowId int) (bool, error) {
	return s.repo.ExistsByImportRow(ctx, importRowId)
}

func (s *ServiceImpl) ensureUnlocked(ctx context.Context, id int) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	locked, err := s.repo.IsLocked(ctx, id)
	if err != nil {
		return err
	}
	if locked {
		return ErrTimeLogLocked
	}
	return nil
}

// prepare fills the service date and hours from the schedule when missing and validates the result.
func prepare(t TimeLog) (TimeLog, error) {
	t.ServiceType = strings.TrimSpace(t.ServiceType)
	t.ExternalIdentifier = strings.TrimSpace(t.ExternalIdentifier)
	if t.ClientId <= 0 || t.StaffId <= 0 {
		return TimeLog{}, fmt.Errorf("%w: client and staff are required", ErrTimeLogDataInvalid)
	}
	if t.ScheduledStart != nil && t.ScheduledEnd != nil {
		if !t.ScheduledEnd.After(*t.ScheduledStart) {
			return TimeLog{}, fmt.Errorf("%w: scheduled end must be after start", ErrTimeLogDataInvalid)
		}
		if t.Hours.IsZero() {
			minutes := int64(t.ScheduledEnd.Sub(*t.ScheduledStart).Minutes())
			t.Hours = decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60)).Round(2)
		}
	}
	if t.ServiceDate.IsZero() {
		if t.ScheduledStart == nil {
			return TimeLog{}, fmt.Errorf("%w: service date is required", ErrTimeLogDataInvalid)
		}
		t.ServiceDate = utils.DateOf(*t.ScheduledStart)
	} else {
		t.ServiceDate = utils.DateOf(t.ServiceDate)
	}
	if !t.Hours.IsPositive() || t.Hours.GreaterThan(maxHoursPerLog) {
		return TimeLog{}, fmt.Errorf("%w: hours must be between 0 and 24", ErrTimeLogDataInvalid)
	}
	if t.Mileage.IsNegative() {
		return TimeLog{}, fmt.Errorf("%w: mileage cannot be negative", ErrTimeLogDataInvalid)
	}
	t.Hours = t.Hours.Round(2)
	t.Mileage = t.Mileage.Round(2)
	return t, nil
}
