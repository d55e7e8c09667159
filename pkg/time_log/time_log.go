package time_log

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimeLog struct {
	Id                 int
	ClientId           int
	StaffId            int
	ServiceDate        time.Time
	ScheduledStart     *time.Time
	ScheduledEnd       *time.Time
	Hours              decimal.Decimal
	ServiceType        string
	Mileage            decimal.Decimal
	Notes              string
	ImportId           string
	ImportRowId        *int
	ExternalIdentifier string
	CreatedAt          time.Time
}

// Filter narrows a listing. Zero values are ignored; From and To are inclusive service dates.
type Filter struct {
	StaffId  int
	ClientId int
	From     time.Time
	To       time.Time
}
