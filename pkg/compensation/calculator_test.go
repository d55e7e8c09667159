package compensation

import (
	"testing"
	"time"

	"github.com/homecare-coop/backoffice/pkg/staff"
	"github.com/homecare-coop/backoffice/pkg/time_log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCalculator(t *testing.T) *Calculator {
	cal, err := NewCalendar(nil)
	require.NoError(t, err)
	return NewCalculator(cal, 8)
}

func testRate() staff.Rate {
	return staff.Rate{
		WeekdayRate:        dec("15.00"),
		WeekendRate:        dec("25.75"),
		HolidayRate:        dec("25.75"),
		MileageRate:        dec("0.60"),
		OvertimeMultiplier: staff.DefaultOvertimeMultiplier,
		IsActive:           true,
	}
}

func logOn(id int, clientId int, d time.Time, hours, mileage string) time_log.TimeLog {
	return time_log.TimeLog{Id: id, ClientId: clientId, StaffId: 1, ServiceDate: d, Hours: dec(hours), Mileage: dec(mileage), ServiceType: "HCPQ"}
}

func assertLinesSumToTotal(t *testing.T, comp Compensation) {
	t.Helper()
	sum := decimal.Zero
	for _, l := range comp.Lines {
		sum = sum.Add(l.Cost)
	}
	assert.True(t, comp.TotalCompensation.Equal(sum), "lines %s, total %s", sum, comp.TotalCompensation)
}

func TestCalculator_ReferenceScenario(t *testing.T) {
	calc := newCalculator(t)
	logs := []time_log.TimeLog{
		logOn(1, 1, date(2024, time.March, 4), "5", "8"),
		logOn(2, 1, date(2024, time.March, 5), "5", "12"),
		logOn(3, 2, date(2024, time.March, 9), "5", "0"),
	}

	comp := calc.Calculate(1, date(2024, time.March, 1), date(2024, time.March, 31), testRate(), logs)

	assert.True(t, dec("10").Equal(comp.RegularHours))
	assert.True(t, comp.OvertimeHours.IsZero())
	assert.True(t, dec("5").Equal(comp.WeekendHours))
	assert.True(t, dec("20").Equal(comp.TotalMileage))
	assert.True(t, dec("150").Equal(comp.RegularAmount))
	assert.True(t, dec("128.75").Equal(comp.WeekendAmount))
	assert.True(t, dec("12").Equal(comp.MileageAmount))
	assert.True(t, dec("290.75").Equal(comp.TotalCompensation), comp.TotalCompensation.String())
	assert.Equal(t, StatusApproved, comp.Status)
	assertLinesSumToTotal(t, comp)
}

func TestCalculator_DailyOvertime(t *testing.T) {
	calc := newCalculator(t)
	rate := testRate()
	rate.WeekdayRate = dec("10")
	rate.MileageRate = decimal.Zero
	monday := date(2024, time.March, 4)
	morning := time.Date(2024, time.March, 4, 7, 0, 0, 0, time.UTC)
	afternoon := time.Date(2024, time.March, 4, 14, 0, 0, 0, time.UTC)
	first := logOn(7, 1, monday, "6", "0")
	first.ScheduledStart = &morning
	second := logOn(3, 2, monday, "4", "0")
	second.ScheduledStart = &afternoon

	// passed out of order on purpose
	comp := calc.Calculate(1, monday, monday, rate, []time_log.TimeLog{second, first})

	assert.True(t, dec("8").Equal(comp.RegularHours))
	assert.True(t, dec("2").Equal(comp.OvertimeHours))
	assert.True(t, dec("30").Equal(comp.OvertimeAmount))
	assert.True(t, dec("110").Equal(comp.TotalCompensation))
	require.Len(t, comp.Lines, 2)
	assert.Equal(t, 7, comp.Lines[0].TimeLogId)
	assert.True(t, comp.Lines[0].OvertimeHours.IsZero())
	assert.True(t, dec("2").Equal(comp.Lines[1].OvertimeHours))
	assert.True(t, dec("50").Equal(comp.Lines[1].Cost))
}

func TestCalculator_HolidayHoursNeverOvertime(t *testing.T) {
	calc := newCalculator(t)
	comp := calc.Calculate(1, date(2024, time.December, 1), date(2024, time.December, 31), testRate(), []time_log.TimeLog{
		logOn(1, 1, date(2024, time.December, 25), "10", "0"),
	})

	assert.True(t, dec("10").Equal(comp.HolidayHours))
	assert.True(t, comp.OvertimeHours.IsZero())
	assert.True(t, dec("257.5").Equal(comp.TotalCompensation))
}

func TestCalculator_LineRoundingRemainderOnLastLine(t *testing.T) {
	calc := newCalculator(t)
	rate := testRate()
	rate.WeekdayRate = dec("10.01")
	rate.MileageRate = decimal.Zero
	logs := []time_log.TimeLog{
		logOn(1, 1, date(2024, time.March, 4), "0.33", "0"),
		logOn(2, 1, date(2024, time.March, 5), "0.33", "0"),
		logOn(3, 1, date(2024, time.March, 6), "0.33", "0"),
	}

	comp := calc.Calculate(1, date(2024, time.March, 1), date(2024, time.March, 31), rate, logs)

	assert.True(t, dec("9.91").Equal(comp.TotalCompensation))
	assert.True(t, dec("3.30").Equal(comp.Lines[0].Cost))
	assert.True(t, dec("3.31").Equal(comp.Lines[2].Cost))
	assertLinesSumToTotal(t, comp)
}

func TestCalculator_ZeroRateYieldsZeroTotal(t *testing.T) {
	calc := newCalculator(t)
	comp := calc.Calculate(1, date(2024, time.March, 1), date(2024, time.March, 31), staff.ZeroRate(1), []time_log.TimeLog{
		logOn(1, 1, date(2024, time.March, 4), "4", "30"),
	})

	assert.True(t, comp.TotalCompensation.IsZero())
	assert.True(t, dec("4").Equal(comp.RegularHours))
	assertLinesSumToTotal(t, comp)
}

func TestCalculator_FormulaHolds(t *testing.T) {
	calc := newCalculator(t)
	rate := testRate()
	logs := make([]time_log.TimeLog, 0)
	for d := 1; d <= 31; d++ {
		logs = append(logs, logOn(d, d%3+1, date(2024, time.March, d), "4.75", "3.3"))
		logs = append(logs, logOn(100+d, d%2+1, date(2024, time.March, d), "4.5", "1.1"))
	}

	comp := calc.Calculate(1, date(2024, time.March, 1), date(2024, time.March, 31), rate, logs)

	formula := comp.RegularHours.Mul(rate.WeekdayRate).
		Add(comp.OvertimeHours.Mul(rate.OvertimeRate())).
		Add(comp.WeekendHours.Mul(rate.WeekendRate)).
		Add(comp.HolidayHours.Mul(rate.HolidayRate)).
		Add(comp.TotalMileage.Mul(rate.MileageRate))
	assert.True(t, formula.Sub(comp.TotalCompensation).Abs().LessThanOrEqual(dec("0.01")))
	assert.True(t, comp.OvertimeHours.IsPositive())
	assertLinesSumToTotal(t, comp)
}
