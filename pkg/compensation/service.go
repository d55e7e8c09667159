package compensation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homecare-coop/backoffice/internal/event_bus"
	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/homecare-coop/backoffice/pkg/staff"
	"github.com/homecare-coop/backoffice/pkg/time_log"
	log "github.com/sirupsen/logrus"
)

var ErrCompensationDataInvalid = errors.New("invalid compensation request")
var ErrAlreadyPaid = errors.New("compensation is already paid")
var ErrCompensationAllocated = errors.New("compensation has budget allocations")
var ErrTimeLogsAlreadyCompensated = errors.New("some time logs are already part of another compensation")

type Service interface {
	// Preview calculates, without storing, the compensation of every active staff member with logs in the period.
	Preview(ctx context.Context, periodStart, periodEnd time.Time, staffType staff.Type) ([]Compensation, error)
	Calculate(ctx context.Context, staffId int, periodStart, periodEnd time.Time) (Compensation, error)
	Create(ctx context.Context, staffId int, periodStart, periodEnd time.Time) (Compensation, error)
	Get(ctx context.Context, id int) (Compensation, error)
	List(ctx context.Context, filter Filter) ([]Compensation, error)
	Delete(ctx context.Context, id int) error
	// MarkPaid moves an approved compensation to paid. A nil paidAt means now.
	MarkPaid(ctx context.Context, id int, paidAt *time.Time) (Compensation, error)
}

type ServiceImpl struct {
	repo       Repository
	staff      staff.Service
	timeLogs   time_log.Service
	calculator *Calculator
	eventBus   *event_bus.EventBus
	clock      utils.Clock
}

func NewService(
	repo Repository,
	staffService staff.Service,
	timeLogService time_log.Service,
	calculator *Calculator,
	eventBus *event_bus.EventBus,
	clock utils.Clock,
) *ServiceImpl {
	return &ServiceImpl{
		repo:       repo,
		staff:      staffService,
		timeLogs:   timeLogService,
		calculator: calculator,
		eventBus:   eventBus,
		clock:      clock,
	}
}

func validatePeriod(periodStart, periodEnd time.Time) error {
	if periodStart.IsZero() || periodEnd.IsZero() {
		return fmt.Errorf("%w: period start and end are required", ErrCompensationDataInvalid)
	}
	if periodEnd.Before(periodStart) {
		return fmt.Errorf("%w: period end is before period start", ErrCompensationDataInvalid)
	}
	return nil
}

func (s *ServiceImpl) Preview(ctx context.Context, periodStart, periodEnd time.Time, staffType staff.Type) ([]Compensation, error) {
	if err := validatePeriod(periodStart, periodEnd); err != nil {
		return nil, err
	}
	members, err := s.staff.List(ctx, staff.Filter{Status: staff.StatusActive, Type: staffType})
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	result := make([]Compensation, 0, len(members))
	for _, member := range members {
		comp, err := s.calculate(ctx, member, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		if len(comp.Lines) == 0 {
			continue
		}
		result = append(result, comp)
	}
	return result, nil
}

func (s *ServiceImpl) Calculate(ctx context.Context, staffId int, periodStart, periodEnd time.Time) (Compensation, error) {
	if err := validatePeriod(periodStart, periodEnd); err != nil {
		return Compensation{}, err
	}
	member, err := s.staff.Get(ctx, staffId)
	if err != nil {
		return Compensation{}, err
	}
	return s.calculate(ctx, member, periodStart, periodEnd)
}

func (s *ServiceImpl) calculate(ctx context.Context, member staff.Staff, periodStart, periodEnd time.Time) (Compensation, error) {
	logs, err := s.timeLogs.List(ctx, time_log.Filter{StaffId: member.Id, From: periodStart, To: periodEnd})
	if err != nil {
		return Compensation{}, fmt.Errorf("failed to list time logs of staff %d: %w", member.Id, err)
	}
	rate, err := s.staff.RateForPeriod(ctx, member.Id, periodEnd)
	if err != nil {
		return Compensation{}, fmt.Errorf("failed to resolve rate of staff %d: %w", member.Id, err)
	}
	comp := s.calculator.Calculate(member.Id, periodStart, periodEnd, rate, logs)
	comp.StaffName = member.FullName()
	return comp, nil
}

func (s *ServiceImpl) Create(ctx context.Context, staffId int, periodStart, periodEnd time.Time) (Compensation, error) {
	comp, err := s.Calculate(ctx, staffId, periodStart, periodEnd)
	if err != nil {
		return Compensation{}, err
	}
	if len(comp.Lines) == 0 {
		return Compensation{}, fmt.Errorf("%w: no time logs in period", ErrCompensationDataInvalid)
	}
	existing, err := s.repo.List(ctx, Filter{StaffId: staffId, From: comp.PeriodStart, To: comp.PeriodEnd})
	if err != nil {
		return Compensation{}, err
	}
	for _, e := range existing {
		if e.PeriodStart.Equal(comp.PeriodStart) && e.PeriodEnd.Equal(comp.PeriodEnd) {
			return Compensation{}, ErrCompensationExists
		}
	}
	timeLogIds := make([]int, 0, len(comp.Lines))
	for _, l := range comp.Lines {
		timeLogIds = append(timeLogIds, l.TimeLogId)
	}
	compensated, err := s.repo.CompensatedTimeLogs(ctx, timeLogIds)
	if err != nil {
		return Compensation{}, err
	}
	if len(compensated) > 0 {
		return Compensation{}, fmt.Errorf("%w: %v", ErrTimeLogsAlreadyCompensated, compensated)
	}
	created, err := s.repo.Create(ctx, comp)
	if err != nil {
		return Compensation{}, err
	}
	log.Infof("Created compensation %d for staff %d (%s - %s): %s", created.Id, staffId,
		created.PeriodStart.Format(utils.DateLayout), created.PeriodEnd.Format(utils.DateLayout), created.TotalCompensation)
	return created, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Compensation, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context, filter Filter) ([]Compensation, error) {
	if filter.Status != "" && filter.Status != StatusApproved && filter.Status != StatusPaid {
		return nil, fmt.Errorf("%w: unknown status %q", ErrCompensationDataInvalid, filter.Status)
	}
	return s.repo.List(ctx, filter)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	comp, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if comp.Status == StatusPaid {
		return ErrAlreadyPaid
	}
	allocated, err := s.repo.HasAllocations(ctx, id)
	if err != nil {
		return err
	}
	if allocated {
		return ErrCompensationAllocated
	}
	return s.repo.Delete(ctx, id)
}

func (s *ServiceImpl) MarkPaid(ctx context.Context, id int, paidAt *time.Time) (Compensation, error) {
	when := s.clock.Now()
	if paidAt != nil {
		when = *paidAt
	}
	paid, err := s.repo.MarkPaid(ctx, id, when)
	if err != nil {
		return Compensation{}, err
	}
	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.CompensationPaidType, event_bus.CompensationPaid{
		CompensationId: paid.Id,
		StaffId:        paid.StaffId,
		Total:          paid.TotalCompensation,
		PaidAt:         when,
	}))
	if err != nil {
		log.Warnf("compensation %d paid but event handling failed: %v", paid.Id, err)
	}
	return paid, nil
}
