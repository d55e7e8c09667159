package compensation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEasterSunday(t *testing.T) {
	assert.Equal(t, date(2024, time.March, 31), easterSunday(2024))
	assert.Equal(t, date(2025, time.April, 20), easterSunday(2025))
	assert.Equal(t, date(2026, time.April, 5), easterSunday(2026))
}

func TestCalendar_Classify(t *testing.T) {
	cal, err := NewCalendar([]string{"06-24"})
	require.NoError(t, err)

	tests := []struct {
		name string
		date time.Time
		want DayKind
	}{
		{"monday", date(2024, time.March, 4), Weekday},
		{"saturday", date(2024, time.March, 9), Weekend},
		{"sunday", date(2024, time.March, 10), Holiday},
		{"liberation day on a thursday", date(2024, time.April, 25), Holiday},
		{"easter monday", date(2024, time.April, 1), Holiday},
		{"republic day on a saturday", date(2029, time.June, 2), Holiday},
		{"christmas", date(2024, time.December, 25), Holiday},
		{"local patron saint", date(2024, time.June, 24), Holiday},
		{"day after patron saint", date(2024, time.June, 25), Weekday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.Classify(tt.date))
		})
	}
}

func TestNewCalendar_RejectsMalformedHoliday(t *testing.T) {
	_, err := NewCalendar([]string{"24/06"})
	assert.Error(t, err)
}
