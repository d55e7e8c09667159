package staff

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var staffRepoStub = NewRepositoryStub()

func setupService(t *testing.T) *ServiceImpl {
	t.Cleanup(staffRepoStub.Cleanup)
	return NewService(staffRepoStub)
}

func TestService_CreateDefaults(t *testing.T) {
	service := setupService(t)

	created, err := service.Create(context.Background(), Staff{FirstName: " Anna ", LastName: "Bianchi"})
	require.NoError(t, err)

	assert.Equal(t, "Anna", created.FirstName)
	assert.Equal(t, TypeInternal, created.Type)
	assert.Equal(t, StatusActive, created.Status)
}

func TestService_CreateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		staff Staff
	}{
		{"missing name", Staff{}},
		{"bad type", Staff{FirstName: "Anna", Type: "contractor"}},
		{"bad status", Staff{FirstName: "Anna", Status: "retired"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := setupService(t)
			_, err := service.Create(context.Background(), tt.staff)
			assert.ErrorIs(t, err, ErrStaffDataInvalid)
		})
	}
}

func TestService_CreateWithDefaultRate(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()
	firstService := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	created, err := service.CreateWithDefaultRate(ctx, Staff{FirstName: "Paolo", LastName: "Verdi", Type: TypeExternal}, firstService)
	require.NoError(t, err)

	rates, err := service.ListRates(ctx, created.Id)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, decimal.RequireFromString("20").Equal(rates[0].WeekdayRate))
	assert.True(t, decimal.RequireFromString("0.80").Equal(rates[0].MileageRate))
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), rates[0].EffectiveFrom)

	rate, err := service.RateForPeriod(ctx, created.Id, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, rates[0].Id, rate.Id)
}

func TestService_AddRate(t *testing.T) {
	t.Run("should default overtime multiplier", func(t *testing.T) {
		service := setupService(t)
		ctx := context.Background()
		s, err := service.Create(ctx, Staff{FirstName: "Anna", LastName: "Bianchi"})
		require.NoError(t, err)

		rate, err := service.AddRate(ctx, Rate{
			StaffId:       s.Id,
			WeekdayRate:   decimal.NewFromInt(15),
			WeekendRate:   decimal.RequireFromString("25.75"),
			HolidayRate:   decimal.RequireFromString("25.75"),
			MileageRate:   decimal.RequireFromString("0.60"),
			EffectiveFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			IsActive:      true,
		})
		require.NoError(t, err)
		assert.True(t, DefaultOvertimeMultiplier.Equal(rate.OvertimeMultiplier))
	})

	t.Run("should reject rate for unknown staff", func(t *testing.T) {
		service := setupService(t)
		_, err := service.AddRate(context.Background(), Rate{StaffId: 42, EffectiveFrom: time.Now()})
		assert.ErrorIs(t, err, ErrStaffNotFound)
	})

	tests := []struct {
		name string
		rate Rate
	}{
		{"missing effective date", Rate{}},
		{"negative weekday", Rate{EffectiveFrom: time.Now(), WeekdayRate: decimal.NewFromInt(-1)}},
		{"multiplier below one", Rate{EffectiveFrom: time.Now(), OvertimeMultiplier: decimal.RequireFromString("0.5")}},
	}
	for _, tt := range tests {
		t.Run("should reject "+tt.name, func(t *testing.T) {
			service := setupService(t)
			s, err := service.Create(context.Background(), Staff{FirstName: "Anna"})
			require.NoError(t, err)
			tt.rate.StaffId = s.Id
			_, err = service.AddRate(context.Background(), tt.rate)
			assert.ErrorIs(t, err, ErrRateDataInvalid)
		})
	}
}

func TestService_RateForPeriodFallsBackToZero(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()
	s, err := service.Create(ctx, Staff{FirstName: "Anna"})
	require.NoError(t, err)
	_, err = service.AddRate(ctx, Rate{
		StaffId: s.Id, WeekdayRate: decimal.NewFromInt(12), EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), IsActive: true,
	})
	require.NoError(t, err)

	rate, err := service.RateForPeriod(ctx, s.Id, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 0, rate.Id)
	assert.True(t, rate.WeekdayRate.IsZero())
}

func TestService_RateOwnership(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()
	a, err := service.Create(ctx, Staff{FirstName: "Anna"})
	require.NoError(t, err)
	b, err := service.Create(ctx, Staff{FirstName: "Bruno"})
	require.NoError(t, err)
	rate, err := service.AddRate(ctx, Rate{StaffId: a.Id, EffectiveFrom: time.Now(), IsActive: true})
	require.NoError(t, err)

	err = service.DeleteRate(ctx, b.Id, rate.Id)
	assert.ErrorIs(t, err, ErrRateNotFound)

	rate.StaffId = b.Id
	_, err = service.UpdateRate(ctx, rate)
	assert.ErrorIs(t, err, ErrRateNotFound)

	assert.NoError(t, service.DeleteRate(ctx, a.Id, rate.Id))
}
