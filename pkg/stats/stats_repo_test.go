package stats

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/homecare-coop/backoffice/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *pgxpool.Pool

func TestMain(m *testing.M) {
	var cleanup func()
	db, cleanup = test_utils.TestWithDB()
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func TestStatsRepoImpl(t *testing.T) {
	test_utils.CleanDB(t, db)
	ctx := context.Background()
	repo := NewStatsRepo(db)

	clientId := test_utils.InsertClient(t, db, "Maria", "Rossi")
	inactiveClient := test_utils.InsertClient(t, db, "Anna", "Verdi")
	_, err := db.Exec(ctx, "UPDATE clients SET status = 'inactive' WHERE id = $1", inactiveClient)
	require.NoError(t, err)
	staffId := test_utils.InsertStaff(t, db, "Luca", "Bianchi")

	for _, log := range []struct {
		date, serviceType, hours, mileage string
	}{
		{"2024-03-01", "SAD", "1.5", "10"},
		{"2024-03-31", "SAD", "2", "0"},
		{"2024-03-15", "ADI", "1", "4.5"},
		{"2024-04-01", "SAD", "3", "0"},
	} {
		_, err := db.Exec(ctx, `INSERT INTO time_logs (client_id, staff_id, service_date, hours, service_type, mileage)
			VALUES ($1, $2, $3, $4, $5, $6)`, clientId, staffId, log.date, log.hours, log.serviceType, log.mileage)
		require.NoError(t, err)
	}

	var compensationId int
	err = db.QueryRow(ctx, `INSERT INTO staff_compensations (staff_id, period_start, period_end, total_compensation)
		VALUES ($1, '2024-03-01', '2024-03-31', 60) RETURNING id`, staffId).Scan(&compensationId)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO compensation_lines (compensation_id, time_log_id, client_id, service_date, day_kind, hours, cost)
		SELECT $1, id, client_id, service_date, 'weekday', hours, hours * 20 FROM time_logs WHERE service_date < '2024-04-01'`,
		compensationId)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `INSERT INTO client_budget_allocations (client_id, budget_type_id, total_amount, used_amount, start_date, end_date)
		VALUES ($1, $2, 1000, 250, '2024-01-01', '2024-12-31'), ($1, $2, 500, 500, '2023-01-01', '2023-12-31')`,
		clientId, test_utils.BudgetTypeId(t, db, "HCPQ"))
	require.NoError(t, err)

	clients, err := repo.CountActiveClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, clients)
	staff, err := repo.CountActiveStaff(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, staff)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	totals, err := repo.ServiceTotals(ctx, march, march.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, time.March, totals[0].Month)
	assert.Equal(t, "ADI", totals[0].ServiceType)
	assert.Equal(t, 1, totals[0].Services)
	assert.Equal(t, "SAD", totals[1].ServiceType)
	assert.Equal(t, 2, totals[1].Services)
	assert.Equal(t, "3.5", totals[1].Hours.String())
	assert.Equal(t, "10", totals[1].Mileage.String())

	cost, err := repo.CompensationCost(ctx, march, march.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "90", cost.String())

	usage, err := repo.BudgetUsage(ctx, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Allocations)
	assert.Equal(t, "1000", usage.Total.String())
	assert.Equal(t, "250", usage.Used.String())
}
