package test_utils

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InsertClient writes a minimal active client and returns its id.
func InsertClient(t *testing.T, db *pgxpool.Pool, firstName, lastName string) int {
	t.Helper()
	var id int
	err := db.QueryRow(context.Background(),
		"INSERT INTO clients (first_name, last_name) VALUES ($1, $2) RETURNING id", firstName, lastName).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert client: %v", err)
	}
	return id
}

// InsertStaff writes a minimal active internal staff member and returns its id.
func InsertStaff(t *testing.T, db *pgxpool.Pool, firstName, lastName string) int {
	t.Helper()
	var id int
	err := db.QueryRow(context.Background(),
		"INSERT INTO staff (first_name, last_name) VALUES ($1, $2) RETURNING id", firstName, lastName).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert staff: %v", err)
	}
	return id
}

// BudgetTypeId returns the id of a seeded budget type.
func BudgetTypeId(t *testing.T, db *pgxpool.Pool, code string) int {
	t.Helper()
	var id int
	if err := db.QueryRow(context.Background(), "SELECT id FROM budget_types WHERE code = $1", code).Scan(&id); err != nil {
		t.Fatalf("budget type %s not found: %v", code, err)
	}
	return id
}
