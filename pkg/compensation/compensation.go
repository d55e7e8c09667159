package compensation

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
)

// AppliedRate is the snapshot of the staff rate a compensation was priced with.
type AppliedRate struct {
	WeekdayRate        decimal.Decimal
	WeekendRate        decimal.Decimal
	HolidayRate        decimal.Decimal
	MileageRate        decimal.Decimal
	OvertimeMultiplier decimal.Decimal
}

type Compensation struct {
	Id                int
	StaffId           int
	StaffName         string
	PeriodStart       time.Time
	PeriodEnd         time.Time
	RegularHours      decimal.Decimal
	OvertimeHours     decimal.Decimal
	WeekendHours      decimal.Decimal
	HolidayHours      decimal.Decimal
	TotalMileage      decimal.Decimal
	RegularAmount     decimal.Decimal
	OvertimeAmount    decimal.Decimal
	WeekendAmount     decimal.Decimal
	HolidayAmount     decimal.Decimal
	MileageAmount     decimal.Decimal
	TotalCompensation decimal.Decimal
	Rate              AppliedRate
	Status            Status
	PaidAt            *time.Time
	// AllocatedAt is set once the cost has been approved against client budgets, even when nothing was charged.
	AllocatedAt *time.Time
	CreatedAt   time.Time
	Lines       []Line
}

// Line is the priced share of one time log. Line costs of a compensation add up to its total.
type Line struct {
	Id            int
	TimeLogId     int
	ClientId      int
	ServiceType   string
	ServiceDate   time.Time
	DayKind       DayKind
	Hours         decimal.Decimal
	OvertimeHours decimal.Decimal
	Mileage       decimal.Decimal
	Cost          decimal.Decimal
}

type Filter struct {
	StaffId int
	From    time.Time
	To      time.Time
	Status  Status
}
