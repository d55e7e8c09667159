package integrity

import (
	"fmt"
	"math"
	"time"

	"github.com/homecare-coop/backoffice/pkg/data_import"
)

// Tolerance is the largest start time difference at which a row and a time log are still the same service.
const Tolerance = 5 * time.Minute

const (
	FieldScheduledStart = "scheduled_start"
	FieldServiceType    = "service_type"
	FieldClientId       = "client_id"
	FieldStaffId        = "staff_id"
)

// ImportedRow is an import row together with the file it came from.
type ImportedRow struct {
	data_import.Row
	Filename   string
	UploadedAt time.Time
}

// ref names the row in report details.
func (r ImportedRow) ref() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return fmt.Sprintf("%s#%d", r.Filename, r.RowNumber)
}

// LoggedService is the part of a time log compared against import rows.
type LoggedService struct {
	Id                 int
	ClientExternalId   string
	ServiceDate        time.Time
	ScheduledStart     *time.Time
	ServiceType        string
	ExternalIdentifier string
	ImportId           string
}

func (l LoggedService) ref() string {
	if l.ExternalIdentifier != "" {
		return l.ExternalIdentifier
	}
	return fmt.Sprintf("time_log:%d", l.Id)
}

type FailureCauses struct {
	// ImportErrors are rows without a usable start time.
	ImportErrors int
	// SyncErrors are rows missing the client or operator id.
	SyncErrors     int
	StructuralGaps int
}

type Details struct {
	UnmatchedExcel       []string
	UnmatchedDb          []string
	DuplicateIdentifiers []string
	MissingFields        map[string][]string
}

type Report struct {
	Year                  int
	Month                 time.Month
	ExcelRecords          int
	DbRecords             int
	MatchedRecords        int
	IntegrityPercentage   float64
	DuplicatesCount       int
	DuplicatesPercentage  float64
	MissingDataCount      int
	MissingDataPercentage float64
	FieldDiscrepancies    map[string]int
	FailureCauses         FailureCauses
	Details               Details
}

func (r Report) Period() string {
	return fmt.Sprintf("%04d-%02d", r.Year, int(r.Month))
}

type YearSummary struct {
	Year             int
	Reports          int
	ExcelRecords     int
	DbRecords        int
	MatchedRecords   int
	AverageIntegrity float64
}

type Summary struct {
	Reports          int
	AverageIntegrity float64
	ExcelRecords     int
	DbRecords        int
	MatchedRecords   int
	Years            []YearSummary
}

type ImportStatus string

const (
	ImportComplete ImportStatus = "complete"
	ImportPartial  ImportStatus = "partial"
	ImportMissing  ImportStatus = "missing"
)

// completeSyncRate is the sync rate from which an import period counts as complete.
const completeSyncRate = 95

// ImportCount is the number of rows an import holds and the time logs created from it.
type ImportCount struct {
	ImportId   string
	Filename   string
	UploadedAt time.Time
	Rows       int
	TimeLogs   int
}

type ImportPeriod struct {
	Period          string
	Files           []string
	ExpectedRecords int
	ActualDbRecords int
	SyncRate        int
	Status          ImportStatus
}

type ImportYear struct {
	Year    int
	Periods []ImportPeriod
}

// percent returns part/whole as a percentage with two decimals, 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
