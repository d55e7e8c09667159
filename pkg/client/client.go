package client

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

type Client struct {
	Id          int
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Address     string
	DateOfBirth *time.Time
	ServiceType string
	Status      Status
	// MonthlyBudget is informational; spending is bounded by the client's budget allocations.
	MonthlyBudget decimal.Decimal
	Notes         string
	ExternalId    string
	TaxCode       string
	CreatedAt     time.Time
}

func (c Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

type Filter struct {
	Status Status
	// Search matches first name, last name, external id or tax code, case-insensitive.
	Search string
}
