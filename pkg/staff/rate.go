package staff

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var DefaultOvertimeMultiplier = decimal.RequireFromString("1.5")

// Rate is one version of a staff member's pay rates, valid from EffectiveFrom until a later active rate starts.
type Rate struct {
	Id                 int
	StaffId            int
	WeekdayRate        decimal.Decimal
	WeekendRate        decimal.Decimal
	HolidayRate        decimal.Decimal
	MileageRate        decimal.Decimal
	OvertimeMultiplier decimal.Decimal
	EffectiveFrom      time.Time
	IsActive           bool
}

// OvertimeRate is the hourly rate for weekday hours beyond the daily threshold.
func (r Rate) OvertimeRate() decimal.Decimal {
	return r.WeekdayRate.Mul(r.OvertimeMultiplier)
}

// ZeroRate is applied when no rate is effective for a period.
func ZeroRate(staffId int) Rate {
	return Rate{
		StaffId:            staffId,
		WeekdayRate:        decimal.Zero,
		WeekendRate:        decimal.Zero,
		HolidayRate:        decimal.Zero,
		MileageRate:        decimal.Zero,
		OvertimeMultiplier: DefaultOvertimeMultiplier,
	}
}

// ResolveRate returns the active rate with the latest EffectiveFrom not after periodEnd.
// The second value is false when no rate qualifies, in which case the zero rate is returned.
func ResolveRate(staffId int, rates []Rate, periodEnd time.Time) (Rate, bool) {
	candidates := make([]Rate, 0, len(rates))
	for _, r := range rates {
		if r.IsActive && !r.EffectiveFrom.After(periodEnd) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return ZeroRate(staffId), false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].EffectiveFrom.Equal(candidates[j].EffectiveFrom) {
			return candidates[i].Id > candidates[j].Id
		}
		return candidates[i].EffectiveFrom.After(candidates[j].EffectiveFrom)
	})
	chosen := candidates[0]
	if chosen.OvertimeMultiplier.IsZero() {
		chosen.OvertimeMultiplier = DefaultOvertimeMultiplier
	}
	return chosen, true
}

// DefaultRate is the starting rate given to staff created from an import.
func DefaultRate(staffType Type, effectiveFrom time.Time) Rate {
	rate := Rate{
		OvertimeMultiplier: DefaultOvertimeMultiplier,
		EffectiveFrom:      effectiveFrom,
		IsActive:           true,
	}
	if staffType == TypeExternal {
		rate.WeekdayRate = decimal.RequireFromString("20.00")
		rate.WeekendRate = decimal.RequireFromString("24.00")
		rate.HolidayRate = decimal.RequireFromString("24.00")
		rate.MileageRate = decimal.RequireFromString("0.80")
		return rate
	}
	rate.WeekdayRate = decimal.RequireFromString("8.00")
	rate.WeekendRate = decimal.RequireFromString("9.00")
	rate.HolidayRate = decimal.RequireFromString("9.00")
	rate.MileageRate = decimal.RequireFromString("0.50")
	return rate
}
