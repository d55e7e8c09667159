package integrity

import (
	"regexp"
	"strconv"
	"time"
)

type month struct {
	year  int
	month time.Month
}

func (m month) before(other month) bool {
	if m.year != other.year {
		return m.year < other.year
	}
	return m.month < other.month
}

var (
	// rangePattern matches export names like 01012024_30062024_Appuntamenti.xlsx.
	rangePattern = regexp.MustCompile(`(\d{2})(\d{2})(\d{4})_(\d{2})(\d{2})(\d{4})`)
	// yearPattern matches export names like 2021_Appuntamenti.xlsx.
	yearPattern = regexp.MustCompile(`^(\d{4})_`)
)

// filenameRange returns the first and last month of the period named in an export file name.
func filenameRange(filename string) (month, month, bool) {
	m := rangePattern.FindStringSubmatch(filename)
	if m == nil {
		return month{}, month{}, false
	}
	startMonth, _ := strconv.Atoi(m[2])
	startYear, _ := strconv.Atoi(m[3])
	endMonth, _ := strconv.Atoi(m[5])
	endYear, _ := strconv.Atoi(m[6])
	if startMonth < 1 || startMonth > 12 || endMonth < 1 || endMonth > 12 {
		return month{}, month{}, false
	}
	return month{startYear, time.Month(startMonth)}, month{endYear, time.Month(endMonth)}, true
}

func monthOf(t time.Time, loc *time.Location) month {
	t = t.In(loc)
	return month{t.Year(), t.Month()}
}

// rowMonth places a row by its start, then by the period in its file name, then by upload month.
func rowMonth(row ImportedRow, loc *time.Location) month {
	if row.ScheduledStart != nil {
		return monthOf(*row.ScheduledStart, loc)
	}
	if start, _, ok := filenameRange(row.Filename); ok {
		return start
	}
	return monthOf(row.UploadedAt, loc)
}

func logMonth(l LoggedService, loc *time.Location) month {
	if l.ScheduledStart != nil {
		return monthOf(*l.ScheduledStart, loc)
	}
	return month{l.ServiceDate.Year(), l.ServiceDate.Month()}
}

// importPeriod returns the year and period label of an import for the import table:
// "03" for a single month, "01-06" for a range and "full-year" for yearly exports.
func importPeriod(filename string, uploadedAt time.Time, loc *time.Location) (int, string) {
	if start, end, ok := filenameRange(filename); ok {
		if start == end {
			return start.year, twoDigits(start.month)
		}
		return start.year, twoDigits(start.month) + "-" + twoDigits(end.month)
	}
	if m := yearPattern.FindStringSubmatch(filename); m != nil {
		year, _ := strconv.Atoi(m[1])
		return year, "full-year"
	}
	uploaded := monthOf(uploadedAt, loc)
	return uploaded.year, twoDigits(uploaded.month)
}

func twoDigits(m time.Month) string {
	if m < 10 {
		return "0" + strconv.Itoa(int(m))
	}
	return strconv.Itoa(int(m))
}
