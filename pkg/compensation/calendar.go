package compensation

import (
	"fmt"
	"time"
)

type DayKind string

const (
	Weekday DayKind = "weekday"
	Weekend DayKind = "weekend"
	Holiday DayKind = "holiday"
)

type monthDay struct {
	month time.Month
	day   int
}

var nationalHolidays = []monthDay{
	{time.January, 1},
	{time.January, 6},
	{time.April, 25},
	{time.May, 1},
	{time.June, 2},
	{time.August, 15},
	{time.November, 1},
	{time.December, 8},
	{time.December, 25},
	{time.December, 26},
}

// Calendar classifies service dates into pay categories.
type Calendar struct {
	holidays map[monthDay]bool
}

// NewCalendar builds the Italian calendar plus recurring local holidays given as MM-DD.
func NewCalendar(extraHolidays []string) (Calendar, error) {
	holidays := make(map[monthDay]bool, len(nationalHolidays)+len(extraHolidays))
	for _, md := range nationalHolidays {
		holidays[md] = true
	}
	for _, raw := range extraHolidays {
		if raw == "" {
			continue
		}
		d, err := time.Parse("01-02", raw)
		if err != nil {
			return Calendar{}, fmt.Errorf("invalid holiday %q, expected MM-DD: %w", raw, err)
		}
		holidays[monthDay{d.Month(), d.Day()}] = true
	}
	return Calendar{holidays: holidays}, nil
}

// Classify treats Sundays, fixed holidays, Easter and Easter Monday as holiday and Saturday as weekend.
func (c Calendar) Classify(date time.Time) DayKind {
	if date.Weekday() == time.Sunday || c.holidays[monthDay{date.Month(), date.Day()}] {
		return Holiday
	}
	easter := easterSunday(date.Year())
	if sameDay(date, easter) || sameDay(date, easter.AddDate(0, 0, 1)) {
		return Holiday
	}
	if date.Weekday() == time.Saturday {
		return Weekend
	}
	return Weekday
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
