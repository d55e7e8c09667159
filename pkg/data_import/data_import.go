package data_import

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
)

// RowError is one entry of an import error log. Row 0 is a file level error.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// Record is one uploaded file.
type Record struct {
	Id            string
	Filename      string
	UploadedBy    *int
	Status        Status
	TotalRows     int
	ProcessedRows int
	ErrorLog      []RowError
	SyncStatus    SyncStatus
	UploadedAt    time.Time
	CompletedAt   *time.Time
}

// Row is a spreadsheet line as read, before it is matched to clients and staff.
type Row struct {
	Id                 int
	ImportId           string
	RowNumber          int
	Identifier         string
	ClientExternalId   string
	ClientFirstName    string
	ClientLastName     string
	TaxCode            string
	OperatorExternalId string
	OperatorFirstName  string
	OperatorLastName   string
	ServiceType        string
	ScheduledStart     *time.Time
	ScheduledEnd       *time.Time
	Duration           *decimal.Decimal
	Kilometers         *decimal.Decimal
	Value              *decimal.Decimal
	// Raw holds every non-empty cell keyed by its header.
	Raw map[string]string
}
