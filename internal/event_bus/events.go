package event_bus

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DataImportCompletedType    EventType = "data_import.completed"
	CompensationAllocatedType  EventType = "compensation.allocated"
	CompensationPaidType       EventType = "compensation.paid"
	AppointmentReminderDueType EventType = "appointment.reminder_due"
)

type DataImportCompleted struct {
	ImportId      string
	Filename      string
	Status        string
	TotalRows     int
	ProcessedRows int
	ErrorCount    int
}

type CompensationAllocated struct {
	CompensationId int
	StaffId        int
	Allocated      decimal.Decimal
	// RemainingToAllocate is the part of the compensation not covered by any client budget.
	RemainingToAllocate decimal.Decimal
	ClientsOwing        int
}

type CompensationPaid struct {
	CompensationId int
	StaffId        int
	Total          decimal.Decimal
	PaidAt         time.Time
}

type AppointmentReminderDue struct {
	AppointmentId string
	ClientId      int
	StaffId       int
	Start         time.Time
	ServiceType   string
}
