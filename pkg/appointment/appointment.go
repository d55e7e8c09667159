package appointment

import (
	"time"
)

type Appointment struct {
	Id       string
	ClientId int
	// StaffId is nil until someone is assigned.
	StaffId     *int
	Start       time.Time
	End         time.Time
	ServiceType string
	Notes       string
}
