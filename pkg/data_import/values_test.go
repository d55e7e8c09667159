package data_import

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rome(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	return loc
}

func TestParseDateTime(t *testing.T) {
	loc := rome(t)
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"italian with minutes", "05/03/2024 08:30", time.Date(2024, 3, 5, 8, 30, 0, 0, loc)},
		{"italian with seconds", "05/03/2024 08:30:15", time.Date(2024, 3, 5, 8, 30, 15, 0, loc)},
		{"italian date only", "05/03/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, loc)},
		{"iso", "2024-03-05 08:30", time.Date(2024, 3, 5, 8, 30, 0, 0, loc)},
		{"rfc3339", "2024-03-05T07:30:00Z", time.Date(2024, 3, 5, 7, 30, 0, 0, time.UTC)},
		{"excel serial", "45356.354166667", time.Date(2024, 3, 5, 8, 30, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDateTime(tt.value, loc)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v, want %v", *got, tt.want)
		})
	}

	empty, err := parseDateTime("  ", loc)
	assert.NoError(t, err)
	assert.Nil(t, empty)

	_, err = parseDateTime("next tuesday", loc)
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	tests := map[string]string{
		"12":         "12",
		"1.5":        "1.5",
		"1,5":        "1.5",
		"1.234,50":   "1234.5",
		"1,234.50":   "1234.5",
		"1.234.567":  "1234567",
		"12,345,678": "12345678",
		"€ 25,00":    "25",
		"€12.40":     "12.4",
		" 0,25 ":     "0.25",
	}
	for value, want := range tests {
		got, err := parseNumber(value)
		require.NoError(t, err, value)
		require.NotNil(t, got, value)
		assert.Equal(t, want, got.String(), value)
	}

	empty, err := parseNumber("")
	assert.NoError(t, err)
	assert.Nil(t, empty)

	_, err = parseNumber("a lot")
	assert.Error(t, err)
}

func TestParseHours(t *testing.T) {
	got, err := parseHours("1:30")
	require.NoError(t, err)
	assert.Equal(t, "1.5", got.String())

	got, err = parseHours("0:20")
	require.NoError(t, err)
	assert.Equal(t, "0.33", got.String())

	got, err = parseHours("2,25")
	require.NoError(t, err)
	assert.Equal(t, "2.25", got.String())

	_, err = parseHours("1:75")
	assert.Error(t, err)
}
