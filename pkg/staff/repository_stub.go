package staff

import (
	"context"
	"sort"
	"strings"
)

type RepositoryStub struct {
	nextId     int
	nextRateId int
	staff      map[int]Staff
	rates      map[int]Rate
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{staff: map[int]Staff{}, rates: map[int]Rate{}}
}

func (s *RepositoryStub) Create(ctx context.Context, staff Staff) (Staff, error) {
	if staff.ExternalId != "" {
		if _, err := s.FindByExternalId(ctx, staff.ExternalId); err == nil {
			return Staff{}, ErrDuplicateExternalId
		}
	}
	s.nextId++
	staff.Id = s.nextId
	s.staff[staff.Id] = staff
	return staff, nil
}

func (s *RepositoryStub) Get(ctx context.Context, id int) (Staff, error) {
	staff, ok := s.staff[id]
	if !ok {
		return Staff{}, ErrStaffNotFound
	}
	return staff, nil
}

func (s *RepositoryStub) List(ctx context.Context, filter Filter) ([]Staff, error) {
	result := make([]Staff, 0)
	for _, staff := range s.staff {
		if filter.Status != "" && staff.Status != filter.Status {
			continue
		}
		if filter.Type != "" && staff.Type != filter.Type {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(staff.FullName()), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, staff)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (s *RepositoryStub) Update(ctx context.Context, staff Staff) (Staff, error) {
	if _, ok := s.staff[staff.Id]; !ok {
		return Staff{}, ErrStaffNotFound
	}
	s.staff[staff.Id] = staff
	return staff, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, id int) error {
	if _, ok := s.staff[id]; !ok {
		return ErrStaffNotFound
	}
	delete(s.staff, id)
	return nil
}

func (s *RepositoryStub) FindByExternalId(ctx context.Context, externalId string) (Staff, error) {
	for _, staff := range s.staff {
		if staff.ExternalId == externalId {
			return staff, nil
		}
	}
	return Staff{}, ErrStaffNotFound
}

func (s *RepositoryStub) CreateRate(ctx context.Context, rate Rate) (Rate, error) {
	if _, ok := s.staff[rate.StaffId]; !ok {
		return Rate{}, ErrStaffNotFound
	}
	s.nextRateId++
	rate.Id = s.nextRateId
	s.rates[rate.Id] = rate
	return rate, nil
}

func (s *RepositoryStub) GetRate(ctx context.Context, id int) (Rate, error) {
	rate, ok := s.rates[id]
	if !ok {
		return Rate{}, ErrRateNotFound
	}
	return rate, nil
}

func (s *RepositoryStub) ListRates(ctx context.Context, staffId int) ([]Rate, error) {
	rates := make([]Rate, 0)
	for _, rate := range s.rates {
		if rate.StaffId == staffId {
			rates = append(rates, rate)
		}
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].EffectiveFrom.After(rates[j].EffectiveFrom) })
	return rates, nil
}

func (s *RepositoryStub) UpdateRate(ctx context.Context, rate Rate) (Rate, error) {
	if _, ok := s.rates[rate.Id]; !ok {
		return Rate{}, ErrRateNotFound
	}
	s.rates[rate.Id] = rate
	return rate, nil
}

func (s *RepositoryStub) DeleteRate(ctx context.Context, id int) error {
	if _, ok := s.rates[id]; !ok {
		return ErrRateNotFound
	}
	delete(s.rates, id)
	return nil
}

func (s *RepositoryStub) Cleanup() {
	s.nextId = 0
	s.nextRateId = 0
	s.staff = map[int]Staff{}
	s.rates = map[int]Rate{}
}
