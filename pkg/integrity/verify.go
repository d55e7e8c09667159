package integrity

import (
	"math"
	"sort"
	"strings"
	"time"
)

// BuildReports produces one report per month holding import rows or time logs, oldest first.
func BuildReports(rows []ImportedRow, logs []LoggedService, loc *time.Location) []Report {
	rowsByMonth := map[month][]ImportedRow{}
	for _, row := range rows {
		m := rowMonth(row, loc)
		rowsByMonth[m] = append(rowsByMonth[m], row)
	}
	logsByMonth := map[month][]LoggedService{}
	for _, l := range logs {
		m := logMonth(l, loc)
		logsByMonth[m] = append(logsByMonth[m], l)
	}

	months := make([]month, 0, len(rowsByMonth)+len(logsByMonth))
	for m := range rowsByMonth {
		months = append(months, m)
	}
	for m := range logsByMonth {
		if _, ok := rowsByMonth[m]; !ok {
			months = append(months, m)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].before(months[j]) })

	reports := make([]Report, 0, len(months))
	for _, m := range months {
		reports = append(reports, buildReport(m, rowsByMonth[m], logsByMonth[m]))
	}
	return reports
}

type pair struct {
	row ImportedRow
	log LoggedService
}

func buildReport(m month, rows []ImportedRow, logs []LoggedService) Report {
	matched, unmatchedRows, unmatchedLogs := match(rows, logs)
	report := Report{
		Year:               m.year,
		Month:              m.month,
		ExcelRecords:       len(rows),
		DbRecords:          len(logs),
		MatchedRecords:     len(matched),
		FieldDiscrepancies: compareFields(matched),
		FailureCauses:      classify(unmatchedRows),
		Details: Details{
			UnmatchedExcel: make([]string, 0, len(unmatchedRows)),
			UnmatchedDb:    make([]string, 0, len(unmatchedLogs)),
		},
	}
	report.IntegrityPercentage = percent(report.MatchedRecords, report.ExcelRecords)

	for _, row := range unmatchedRows {
		report.Details.UnmatchedExcel = append(report.Details.UnmatchedExcel, row.ref())
	}
	for _, l := range unmatchedLogs {
		report.Details.UnmatchedDb = append(report.Details.UnmatchedDb, l.ref())
	}

	report.Details.DuplicateIdentifiers, report.DuplicatesCount = duplicates(rows)
	report.DuplicatesPercentage = percent(report.DuplicatesCount, report.ExcelRecords)

	report.Details.MissingFields = missingFields(rows)
	for _, refs := range report.Details.MissingFields {
		report.MissingDataCount += len(refs)
	}
	report.MissingDataPercentage = percent(report.MissingDataCount, report.ExcelRecords)
	return report
}

// match pairs rows with time logs, first by external identifier, then by the closest start within Tolerance.
// A time-based match requires the same client when both sides carry a client external id. Each log is used once.
func match(rows []ImportedRow, logs []LoggedService) ([]pair, []ImportedRow, []LoggedService) {
	used := make([]bool, len(logs))
	byIdentifier := map[string][]int{}
	for i, l := range logs {
		if l.ExternalIdentifier != "" {
			byIdentifier[l.ExternalIdentifier] = append(byIdentifier[l.ExternalIdentifier], i)
		}
	}

	matched := make([]pair, 0, len(rows))
	unmatchedRows := make([]ImportedRow, 0)
	for _, row := range rows {
		idx := -1
		if row.Identifier != "" {
			for _, candidate := range byIdentifier[row.Identifier] {
				if !used[candidate] {
					idx = candidate
					break
				}
			}
		}
		if idx < 0 && row.ScheduledStart != nil {
			idx = closestByStart(row, logs, used)
		}
		if idx < 0 {
			unmatchedRows = append(unmatchedRows, row)
			continue
		}
		used[idx] = true
		matched = append(matched, pair{row: row, log: logs[idx]})
	}

	unmatchedLogs := make([]LoggedService, 0)
	for i, l := range logs {
		if !used[i] {
			unmatchedLogs = append(unmatchedLogs, l)
		}
	}
	return matched, unmatchedRows, unmatchedLogs
}

func closestByStart(row ImportedRow, logs []LoggedService, used []bool) int {
	best := -1
	var bestDiff time.Duration
	for i, l := range logs {
		if used[i] || l.ScheduledStart == nil {
			continue
		}
		if row.ClientExternalId != "" && l.ClientExternalId != "" && row.ClientExternalId != l.ClientExternalId {
			continue
		}
		diff := absDuration(l.ScheduledStart.Sub(*row.ScheduledStart))
		if diff > Tolerance {
			continue
		}
		if best < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// compareFields counts matched pairs whose start or service type disagree.
func compareFields(matched []pair) map[string]int {
	discrepancies := map[string]int{}
	for _, p := range matched {
		if p.row.ScheduledStart != nil && p.log.ScheduledStart != nil &&
			absDuration(p.log.ScheduledStart.Sub(*p.row.ScheduledStart)) > Tolerance {
			discrepancies[FieldScheduledStart]++
		}
		rowType := strings.TrimSpace(p.row.ServiceType)
		logType := strings.TrimSpace(p.log.ServiceType)
		if rowType != "" && logType != "" && !strings.EqualFold(rowType, logType) {
			discrepancies[FieldServiceType]++
		}
	}
	return discrepancies
}

func classify(unmatched []ImportedRow) FailureCauses {
	var causes FailureCauses
	for _, row := range unmatched {
		switch {
		case row.ScheduledStart == nil:
			causes.ImportErrors++
		case row.ClientExternalId == "" || row.OperatorExternalId == "":
			causes.SyncErrors++
		default:
			causes.StructuralGaps++
		}
	}
	return causes
}

// duplicates returns the identifiers seen more than once and the number of repeated occurrences.
func duplicates(rows []ImportedRow) ([]string, int) {
	seen := map[string]int{}
	for _, row := range rows {
		if row.Identifier != "" {
			seen[row.Identifier]++
		}
	}
	ids := make([]string, 0)
	count := 0
	for id, n := range seen {
		if n > 1 {
			ids = append(ids, id)
			count += n - 1
		}
	}
	sort.Strings(ids)
	return ids, count
}

func missingFields(rows []ImportedRow) map[string][]string {
	missing := map[string][]string{}
	for _, row := range rows {
		if row.ScheduledStart == nil {
			missing[FieldScheduledStart] = append(missing[FieldScheduledStart], row.ref())
		}
		if row.ClientExternalId == "" {
			missing[FieldClientId] = append(missing[FieldClientId], row.ref())
		}
		if row.OperatorExternalId == "" {
			missing[FieldStaffId] = append(missing[FieldStaffId], row.ref())
		}
	}
	return missing
}

// Summarize averages the integrity of the reports, overall and per year.
func Summarize(reports []Report) Summary {
	summary := Summary{Reports: len(reports), Years: make([]YearSummary, 0)}
	var integritySum float64
	yearIndex := map[int]int{}
	yearIntegrity := map[int]float64{}
	for _, r := range reports {
		summary.ExcelRecords += r.ExcelRecords
		summary.DbRecords += r.DbRecords
		summary.MatchedRecords += r.MatchedRecords
		integritySum += r.IntegrityPercentage

		idx, ok := yearIndex[r.Year]
		if !ok {
			idx = len(summary.Years)
			yearIndex[r.Year] = idx
			summary.Years = append(summary.Years, YearSummary{Year: r.Year})
		}
		y := &summary.Years[idx]
		y.Reports++
		y.ExcelRecords += r.ExcelRecords
		y.DbRecords += r.DbRecords
		y.MatchedRecords += r.MatchedRecords
		yearIntegrity[r.Year] += r.IntegrityPercentage
	}
	if len(reports) > 0 {
		summary.AverageIntegrity = round2(integritySum / float64(len(reports)))
	}
	for i := range summary.Years {
		y := &summary.Years[i]
		y.AverageIntegrity = round2(yearIntegrity[y.Year] / float64(y.Reports))
	}
	return summary
}

// BuildImportTable groups imports by the period named in their file, with the share of rows turned into time logs.
func BuildImportTable(counts []ImportCount, loc *time.Location) []ImportYear {
	type key struct {
		year   int
		period string
	}
	periods := map[key]*ImportPeriod{}
	for _, c := range counts {
		year, period := importPeriod(c.Filename, c.UploadedAt, loc)
		k := key{year, period}
		p, ok := periods[k]
		if !ok {
			p = &ImportPeriod{Period: period, Files: []string{}}
			periods[k] = p
		}
		p.Files = append(p.Files, c.Filename)
		p.ExpectedRecords += c.Rows
		p.ActualDbRecords += c.TimeLogs
	}

	keys := make([]key, 0, len(periods))
	for k := range periods {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].period < keys[j].period
	})

	years := make([]ImportYear, 0)
	for _, k := range keys {
		p := periods[k]
		p.SyncRate = int(math.Round(percent(p.ActualDbRecords, p.ExpectedRecords)))
		switch {
		case p.SyncRate >= completeSyncRate:
			p.Status = ImportComplete
		case p.SyncRate > 0:
			p.Status = ImportPartial
		default:
			p.Status = ImportMissing
		}
		if len(years) == 0 || years[len(years)-1].Year != k.year {
			years = append(years, ImportYear{Year: k.year})
		}
		years[len(years)-1].Periods = append(years[len(years)-1].Periods, *p)
	}
	return years
}
