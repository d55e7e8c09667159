package compensation

import (
	"sort"
	"time"

	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/homecare-coop/backoffice/pkg/staff"
	"github.com/homecare-coop/backoffice/pkg/time_log"
	"github.com/shopspring/decimal"
)

type Calculator struct {
	calendar          Calendar
	overtimeThreshold decimal.Decimal
}

// NewCalculator prices weekday hours beyond dailyOvertimeHours per staff member and day as overtime.
func NewCalculator(calendar Calendar, dailyOvertimeHours float64) *Calculator {
	return &Calculator{calendar: calendar, overtimeThreshold: decimal.NewFromFloat(dailyOvertimeHours)}
}

// Calculate prices the given logs of one staff member with rate. Logs are processed chronologically.
func (c *Calculator) Calculate(staffId int, periodStart, periodEnd time.Time, rate staff.Rate, logs []time_log.TimeLog) Compensation {
	ordered := make([]time_log.TimeLog, len(logs))
	copy(ordered, logs)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.ServiceDate.Equal(b.ServiceDate) {
			return a.ServiceDate.Before(b.ServiceDate)
		}
		if a.ScheduledStart != nil && b.ScheduledStart != nil && !a.ScheduledStart.Equal(*b.ScheduledStart) {
			return a.ScheduledStart.Before(*b.ScheduledStart)
		}
		return a.Id < b.Id
	})

	comp := Compensation{
		StaffId:     staffId,
		PeriodStart: utils.DateOf(periodStart),
		PeriodEnd:   utils.DateOf(periodEnd),
		Rate: AppliedRate{
			WeekdayRate:        rate.WeekdayRate,
			WeekendRate:        rate.WeekendRate,
			HolidayRate:        rate.HolidayRate,
			MileageRate:        rate.MileageRate,
			OvertimeMultiplier: rate.OvertimeMultiplier,
		},
		Status: StatusApproved,
		Lines:  make([]Line, 0, len(ordered)),
	}
	overtimeRate := rate.OvertimeRate()

	weekdayHours := map[time.Time]decimal.Decimal{}
	var regular, overtime, weekend, holiday, mileage decimal.Decimal
	exactCosts := make([]decimal.Decimal, 0, len(ordered))
	for _, l := range ordered {
		date := utils.DateOf(l.ServiceDate)
		line := Line{
			TimeLogId:     l.Id,
			ClientId:      l.ClientId,
			ServiceType:   l.ServiceType,
			ServiceDate:   date,
			DayKind:       c.calendar.Classify(date),
			Hours:         l.Hours,
			OvertimeHours: decimal.Zero,
			Mileage:       l.Mileage,
		}
		cost := l.Mileage.Mul(rate.MileageRate)
		switch line.DayKind {
		case Weekday:
			worked := weekdayHours[date]
			room := decimal.Max(decimal.Zero, c.overtimeThreshold.Sub(worked))
			regularPart := decimal.Min(l.Hours, room)
			line.OvertimeHours = l.Hours.Sub(regularPart)
			weekdayHours[date] = worked.Add(l.Hours)
			regular = regular.Add(regularPart)
			overtime = overtime.Add(line.OvertimeHours)
			cost = cost.Add(regularPart.Mul(rate.WeekdayRate)).Add(line.OvertimeHours.Mul(overtimeRate))
		case Weekend:
			weekend = weekend.Add(l.Hours)
			cost = cost.Add(l.Hours.Mul(rate.WeekendRate))
		case Holiday:
			holiday = holiday.Add(l.Hours)
			cost = cost.Add(l.Hours.Mul(rate.HolidayRate))
		}
		mileage = mileage.Add(l.Mileage)
		exactCosts = append(exactCosts, cost)
		comp.Lines = append(comp.Lines, line)
	}

	comp.RegularHours = regular
	comp.OvertimeHours = overtime
	comp.WeekendHours = weekend
	comp.HolidayHours = holiday
	comp.TotalMileage = mileage
	comp.RegularAmount = regular.Mul(rate.WeekdayRate).Round(2)
	comp.OvertimeAmount = overtime.Mul(overtimeRate).Round(2)
	comp.WeekendAmount = weekend.Mul(rate.WeekendRate).Round(2)
	comp.HolidayAmount = holiday.Mul(rate.HolidayRate).Round(2)
	comp.MileageAmount = mileage.Mul(rate.MileageRate).Round(2)
	comp.TotalCompensation = regular.Mul(rate.WeekdayRate).
		Add(overtime.Mul(overtimeRate)).
		Add(weekend.Mul(rate.WeekendRate)).
		Add(holiday.Mul(rate.HolidayRate)).
		Add(mileage.Mul(rate.MileageRate)).
		Round(2)

	distributeLineCosts(comp.Lines, exactCosts, comp.TotalCompensation)
	return comp
}

// distributeLineCosts rounds each line and moves the rounding difference onto the last line,
// so line costs always sum to total.
func distributeLineCosts(lines []Line, exact []decimal.Decimal, total decimal.Decimal) {
	if len(lines) == 0 {
		return
	}
	sum := decimal.Zero
	for i := range lines {
		lines[i].Cost = exact[i].Round(2)
		sum = sum.Add(lines[i].Cost)
	}
	last := len(lines) - 1
	lines[last].Cost = lines[last].Cost.Add(total.Sub(sum))
}
