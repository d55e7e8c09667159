package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrStaffDataInvalid = errors.New("invalid staff data")
var ErrRateDataInvalid = errors.New("invalid staff rate")

type Service interface {
	Create(ctx context.Context, staff Staff) (Staff, error)
	// CreateWithDefaultRate registers a staff member together with the default rate for its type,
	// effective from the hire date or effectiveFrom, whichever is earlier.
	CreateWithDefaultRate(ctx context.Context, staff Staff, effectiveFrom time.Time) (Staff, error)
	Get(ctx context.Context, id int) (Staff, error)
	List(ctx context.Context, filter Filter) ([]Staff, error)
	Update(ctx context.Context, staff Staff) (Staff, error)
	Delete(ctx context.Context, id int) error

	AddRate(ctx context.Context, rate Rate) (Rate, error)
	ListRates(ctx context.Context, staffId int) ([]Rate, error)
	UpdateRate(ctx context.Context, rate Rate) (Rate, error)
	DeleteRate(ctx context.Context, staffId int, rateId int) error
	// RateForPeriod resolves the rate applied to a period ending at periodEnd; see ResolveRate.
	RateForPeriod(ctx context.Context, staffId int, periodEnd time.Time) (Rate, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, staff Staff) (Staff, error) {
	staff = normalize(staff)
	if err := validate(staff); err != nil {
		return Staff{}, err
	}
	return s.repo.Create(ctx, staff)
}

func (s *ServiceImpl) CreateWithDefaultRate(ctx context.Context, staff Staff, effectiveFrom time.Time) (Staff, error) {
	created, err := s.Create(ctx, staff)
	if err != nil {
		return Staff{}, err
	}
	if created.HireDate != nil && created.HireDate.Before(effectiveFrom) {
		effectiveFrom = *created.HireDate
	}
	rate := DefaultRate(created.Type, utils.DateOf(effectiveFrom))
	rate.StaffId = created.Id
	if _, err := s.repo.CreateRate(ctx, rate); err != nil {
		return Staff{}, fmt.Errorf("failed to create default rate for staff %d: %w", created.Id, err)
	}
	log.Infof("Created staff %d (%s) with default %s rates", created.Id, created.FullName(), created.Type)
	return created, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Staff, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context, filter Filter) ([]Staff, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrStaffDataInvalid, filter.Status)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrStaffDataInvalid, filter.Type)
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

func (s *ServiceImpl) Update(ctx context.Context, staff Staff) (Staff, error) {
	staff = normalize(staff)
	if err := validate(staff); err != nil {
		return Staff{}, err
	}
	return s.repo.Update(ctx, staff)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func normalize(staff Staff) Staff {
	staff.FirstName = strings.TrimSpace(staff.FirstName)
	staff.LastName = strings.TrimSpace(staff.LastName)
	staff.ExternalId = strings.TrimSpace(staff.ExternalId)
	if staff.Type == "" {
		staff.Type = TypeInternal
	}
	if staff.Status == "" {
		staff.Status = StatusActive
	}
	return staff
}

func validate(staff Staff) error {
	if staff.FirstName == "" && staff.LastName == "" {
		return fmt.Errorf("%w: name is required", ErrStaffDataInvalid)
	}
	if !staff.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrStaffDataInvalid, staff.Type)
	}
	if !staff.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrStaffDataInvalid, staff.Status)
	}
	return nil
}

func (s *ServiceImpl) AddRate(ctx context.Context, rate Rate) (Rate, error) {
	if _, err := s.repo.Get(ctx, rate.StaffId); err != nil {
		return Rate{}, err
	}
	rate, err := normalizeRate(rate)
	if err != nil {
		return Rate{}, err
	}
	return s.repo.CreateRate(ctx, rate)
}

func (s *ServiceImpl) ListRates(ctx context.Context, staffId int) ([]Rate, error) {
	if _, err := s.repo.Get(ctx, staffId); err != nil {
		return nil, err
	}
	return s.repo.ListRates(ctx, staffId)
}

func (s *ServiceImpl) UpdateRate(ctx context.Context, rate Rate) (Rate, error) {
	existing, err := s.repo.GetRate(ctx, rate.Id)
	if err != nil {
		return Rate{}, err
	}
	if existing.StaffId != rate.StaffId {
		return Rate{}, ErrRateNotFound
	}
	rate, err = normalizeRate(rate)
	if err != nil {
		return Rate{}, err
	}
	return s.repo.UpdateRate(ctx, rate)
}

func (s *ServiceImpl) DeleteRate(ctx context.Context, staffId int, rateId int) error {
	existing, err := s.repo.GetRate(ctx, rateId)
	if err != nil {
		return err
	}
	if existing.StaffId != staffId {
		return ErrRateNotFound
	}
	return s.repo.DeleteRate(ctx, rateId)
}

func (s *ServiceImpl) RateForPeriod(ctx context.Context, staffId int, periodEnd time.Time) (Rate, error) {
	rates, err := s.repo.ListRates(ctx, staffId)
	if err != nil {
		return Rate{}, err
	}
	rate, found := ResolveRate(staffId, rates, periodEnd)
	if !found {
		log.Warnf("no active rate for staff %d effective on %s, using zero rates", staffId, periodEnd.Format(utils.DateLayout))
	}
	return rate, nil
}

func normalizeRate(rate Rate) (Rate, error) {
	if rate.EffectiveFrom.IsZero() {
		return Rate{}, fmt.Errorf("%w: effective from date is required", ErrRateDataInvalid)
	}
	for name, value := range map[string]decimal.Decimal{
		"weekday rate": rate.WeekdayRate,
		"weekend rate": rate.WeekendRate,
		"holiday rate": rate.HolidayRate,
		"mileage rate": rate.MileageRate,
	} {
		if value.IsNegative() {
			return Rate{}, fmt.Errorf("%w: %s cannot be negative", ErrRateDataInvalid, name)
		}
	}
	if rate.OvertimeMultiplier.IsZero() {
		rate.OvertimeMultiplier = DefaultOvertimeMultiplier
	}
	if rate.OvertimeMultiplier.LessThan(decimal.NewFromInt(1)) {
		return Rate{}, fmt.Errorf("%w: overtime multiplier must be at least 1", ErrRateDataInvalid)
	}
	rate.EffectiveFrom = utils.DateOf(rate.EffectiveFrom)
	return rate, nil
}
