package auth

import (
	"fmt"
	"slices"
)

type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type Resource string

const (
	Clients           Resource = "clients"
	Staff             Resource = "staff"
	StaffRates        Resource = "staff_rates"
	TimeLogs          Resource = "time_logs"
	Compensations     Resource = "compensations"
	BudgetAllocations Resource = "budget_allocations"
	DataImports       Resource = "data_imports"
	Integrity         Resource = "integrity"
	Statistics        Resource = "statistics"
	Users             Resource = "users"
	Appointments      Resource = "appointments"
	Assignments       Resource = "assignments"
)

type Action string

const (
	Create Action = "create"
	Read   Action = "read"
	Update Action = "update"
	Delete Action = "delete"
)

type Permission struct {
	Resource Resource
	Action   Action
}

func (p Permission) String() string {
	return fmt.Sprintf("%s:%s", p.Resource, p.Action)
}

var (
	everyone     = []Role{RoleStaff, RoleManager, RoleAdmin}
	managersUp   = []Role{RoleManager, RoleAdmin}
	adminsOnly   = []Role{RoleAdmin}
	defaultRoles = adminsOnly
)

// policy maps every permission to the roles holding it. Permissions missing here are admin only.
var policy = map[Permission][]Role{
	{Clients, Read}:   everyone,
	{Clients, Create}: managersUp,
	{Clients, Update}: managersUp,
	{Clients, Delete}: adminsOnly,

	{Staff, Read}:   everyone,
	{Staff, Create}: managersUp,
	{Staff, Update}: managersUp,
	{Staff, Delete}: adminsOnly,

	{StaffRates, Read}:   managersUp,
	{StaffRates, Create}: managersUp,
	{StaffRates, Update}: managersUp,
	{StaffRates, Delete}: adminsOnly,

	{TimeLogs, Read}:   everyone,
	{TimeLogs, Create}: everyone,
	{TimeLogs, Update}: managersUp,
	{TimeLogs, Delete}: managersUp,

	{Compensations, Read}:   managersUp,
	{Compensations, Create}: managersUp,
	{Compensations, Update}: adminsOnly,
	{Compensations, Delete}: adminsOnly,

	{BudgetAllocations, Read}:   managersUp,
	{BudgetAllocations, Create}: managersUp,
	{BudgetAllocations, Update}: managersUp,
	{BudgetAllocations, Delete}: adminsOnly,

	{DataImports, Read}:   managersUp,
	{DataImports, Create}: managersUp,
	{DataImports, Update}: managersUp,
	{DataImports, Delete}: adminsOnly,

	{Integrity, Read}:  managersUp,
	{Statistics, Read}: managersUp,

	{Users, Read}:   adminsOnly,
	{Users, Create}: adminsOnly,
	{Users, Update}: adminsOnly,
	{Users, Delete}: adminsOnly,

	{Appointments, Read}:   everyone,
	{Appointments, Create}: managersUp,
	{Appointments, Update}: managersUp,
	{Appointments, Delete}: managersUp,

	{Assignments, Read}:   everyone,
	{Assignments, Create}: managersUp,
	{Assignments, Update}: managersUp,
	{Assignments, Delete}: managersUp,
}

// RolesFor returns the roles granted the permission.
func RolesFor(p Permission) []Role {
	if roles, ok := policy[p]; ok {
		return roles
	}
	return defaultRoles
}

func Allowed(role Role, p Permission) bool {
	return slices.Contains(RolesFor(p), role)
}
