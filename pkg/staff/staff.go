package staff

import (
	"time"
)

type Type string

const (
	TypeInternal Type = "internal"
	TypeExternal Type = "external"
)

func (t Type) Valid() bool {
	return t == TypeInternal || t == TypeExternal
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Staff struct {
	Id         int
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Type       Type
	Status     Status
	ExternalId string
	HireDate   *time.Time
	CreatedAt  time.Time
}

func (s Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

type Filter struct {
	Status Status
	Type   Type
	Search string
}
