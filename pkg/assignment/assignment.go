package assignment

import (
	"time"
)

type Type string

const (
	TypePrimary   Type = "primary"
	TypeSecondary Type = "secondary"
)

func (t Type) Valid() bool {
	return t == TypePrimary || t == TypeSecondary
}

// Assignment links a staff member to a client they regularly serve.
// A client and staff member have at most one active assignment.
type Assignment struct {
	Id         int
	ClientId   int
	ClientName string
	StaffId    int
	StaffName  string
	Type       Type
	// StartDate and EndDate bound the assignment when set.
	StartDate *time.Time
	EndDate   *time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Filter struct {
	ClientId        int
	StaffId         int
	IncludeInactive bool
}
