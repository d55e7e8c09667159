package data_import

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var dateTimeLayouts = []string{
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDateTime reads a date cell written as text in loc, as RFC3339 or as an Excel serial number.
func parseDateTime(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		wall, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, fmt.Errorf("invalid excel date %q: %w", value, err)
		}
		// Serial numbers carry no zone; they are wall-clock times in loc.
		wall = wall.Round(time.Second)
		t := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, loc)
		return &t, nil
	}
	return nil, fmt.Errorf("unrecognised date %q", value)
}

// parseNumber reads 1234.5, 1,5, 1.234,50 and 1,234.50 forms.
// The separator appearing last is the decimal one; the other groups thousands.
func parseNumber(value string) (*decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	value = strings.TrimSpace(strings.TrimPrefix(value, "€"))
	d, err := decimal.NewFromString(normalizeSeparators(value))
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", value)
	}
	return &d, nil
}

func normalizeSeparators(value string) string {
	decimalSep, groupSep := ".", ","
	if strings.LastIndex(value, ",") > strings.LastIndex(value, ".") {
		decimalSep, groupSep = ",", "."
	}
	value = strings.ReplaceAll(value, groupSep, "")
	if strings.Count(value, decimalSep) > 1 {
		return strings.ReplaceAll(value, decimalSep, "")
	}
	return strings.Replace(value, decimalSep, ".", 1)
}

// parseHours reads a duration in hours, either decimal or H:MM.
func parseHours(value string) (*decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if h, m, ok := strings.Cut(value, ":"); ok {
		hours, errH := strconv.Atoi(h)
		minutes, errM := strconv.Atoi(m)
		if errH != nil || errM != nil || minutes < 0 || minutes >= 60 {
			return nil, fmt.Errorf("invalid duration %q", value)
		}
		d := decimal.NewFromInt(int64(hours)).Add(decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))).Round(2)
		return &d, nil
	}
	return parseNumber(value)
}
