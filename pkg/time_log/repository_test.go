package time_log

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/homecare-coop/backoffice/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
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

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, int, int) {
	test_utils.CleanDB(t, db)
	clientId := test_utils.InsertClient(t, db, "Lucia", "Esposito")
	staffId := test_utils.InsertStaff(t, db, "Anna", "Bianchi")
	return context.Background(), NewRepository(db), clientId, staffId
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestRepositoryImpl_CreateGet(t *testing.T) {
	ctx, repo, clientId, staffId := setupTestRepository(t)
	start := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	created, err := repo.Create(ctx, TimeLog{
		ClientId: clientId, StaffId: staffId, ServiceDate: day(4), ScheduledStart: &start, ScheduledEnd: &end,
		Hours: decimal.RequireFromString("1.5"), ServiceType: "HCPQ", Mileage: decimal.RequireFromString("7.20"),
		ExternalIdentifier: "SRV-1",
	})
	require.NoError(t, err)

	fetched, err := repo.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, day(4), fetched.ServiceDate.UTC())
	require.NotNil(t, fetched.ScheduledStart)
	assert.True(t, start.Equal(*fetched.ScheduledStart))
	assert.True(t, decimal.RequireFromString("1.5").Equal(fetched.Hours))
	assert.Equal(t, "SRV-1", fetched.ExternalIdentifier)
	assert.Empty(t, fetched.ImportId)

	exists, err := repo.ExistsByExternalIdentifier(ctx, "SRV-1")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.Create(ctx, TimeLog{ClientId: clientId, StaffId: staffId, ServiceDate: day(5), Hours: decimal.NewFromInt(1), ExternalIdentifier: "SRV-1"})
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	_, err = repo.Create(ctx, TimeLog{ClientId: 9999, StaffId: staffId, ServiceDate: day(5), Hours: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestRepositoryImpl_ListFilter(t *testing.T) {
	ctx, repo, clientId, staffId := setupTestRepository(t)
	otherStaff := test_utils.InsertStaff(t, db, "Bruno", "Neri")
	for _, entry := range []struct {
		staff int
		d     int
	}{{staffId, 10}, {staffId, 2}, {otherStaff, 5}, {staffId, 31}} {
		_, err := repo.Create(ctx, TimeLog{ClientId: clientId, StaffId: entry.staff, ServiceDate: day(entry.d), Hours: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}

	logs, err := repo.List(ctx, Filter{StaffId: staffId, From: day(1), To: day(30)})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, day(2), logs[0].ServiceDate.UTC())
	assert.Equal(t, day(10), logs[1].ServiceDate.UTC())

	all, err := repo.List(ctx, Filter{ClientId: clientId})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRepositoryImpl_UpdateDeleteAndLock(t *testing.T) {
	ctx, repo, clientId, staffId := setupTestRepository(t)
	created, err := repo.Create(ctx, TimeLog{ClientId: clientId, StaffId: staffId, ServiceDate: day(4), Hours: decimal.NewFromInt(2)})
	require.NoError(t, err)

	created.Hours = decimal.NewFromInt(3)
	created.Notes = "extended visit"
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(updated.Hours))
	assert.Equal(t, "extended visit", updated.Notes)

	locked, err := repo.IsLocked(ctx, created.Id)
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, repo.Delete(ctx, created.Id))
	_, err = repo.Get(ctx, created.Id)
	assert.ErrorIs(t, err, ErrTimeLogNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.Id), ErrTimeLogNotFound)
}

func TestRepositoryImpl_AllocatedLogIsLocked(t *testing.T) {
	ctx, repo, clientId, staffId := setupTestRepository(t)
	created, err := repo.Create(ctx, TimeLog{ClientId: clientId, StaffId: staffId, ServiceDate: day(4), Hours: decimal.NewFromInt(2)})
	require.NoError(t, err)

	var compensationId, allocationId int
	err = db.QueryRow(ctx, `INSERT INTO staff_compensations (staff_id, period_start, period_end, total_compensation)
		VALUES ($1, '2024-03-01', '2024-03-31', 30) RETURNING id`, staffId).Scan(&compensationId)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO compensation_lines (compensation_id, time_log_id, client_id, service_date, day_kind, hours, cost)
		VALUES ($1, $2, $3, '2024-03-04', 'weekday', 2, 30)`, compensationId, created.Id, clientId)
	require.NoError(t, err)
	err = db.QueryRow(ctx, `INSERT INTO client_budget_allocations (client_id, budget_type_id, total_amount, used_amount, start_date, end_date)
		VALUES ($1, $2, 100, 30, '2024-01-01', '2024-12-31') RETURNING id`,
		clientId, test_utils.BudgetTypeId(t, db, "HCPQ")).Scan(&allocationId)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO compensation_allocations (compensation_id, time_log_id, client_budget_allocation_id, client_id, amount, hours)
		VALUES ($1, $2, $3, $4, 30, 2)`, compensationId, created.Id, allocationId, clientId)
	require.NoError(t, err)

	locked, err := repo.IsLocked(ctx, created.Id)
	require.NoError(t, err)
	assert.True(t, locked, "an approved, unpaid compensation locks its logs")

	assert.ErrorIs(t, repo.Delete(ctx, created.Id), ErrTimeLogLocked)
	created.Hours = decimal.NewFromInt(5)
	_, err = repo.Update(ctx, created)
	assert.ErrorIs(t, err, ErrTimeLogLocked)

	fetched, err := repo.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2).Equal(fetched.Hours))

	var used decimal.Decimal
	var records int
	require.NoError(t, db.QueryRow(ctx, "SELECT used_amount FROM client_budget_allocations WHERE id = $1", allocationId).Scan(&used))
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM compensation_allocations WHERE client_budget_allocation_id = $1", allocationId).Scan(&records))
	assert.True(t, decimal.NewFromInt(30).Equal(used))
	assert.Equal(t, 1, records)
}

func TestRepositoryImpl_ImportRowSyncedOnce(t *testing.T) {
	ctx, repo, clientId, staffId := setupTestRepository(t)
	importId := "5a0c9e52-6f1d-4e0b-9a57-2f1f1d7c0a11"
	_, err := db.Exec(ctx, "INSERT INTO data_imports (id, filename, status) VALUES ($1, 'marzo.csv', 'completed')", importId)
	require.NoError(t, err)
	var rowId int
	require.NoError(t, db.QueryRow(ctx, "INSERT INTO import_rows (import_id, row_number) VALUES ($1, 2) RETURNING id",
		importId).Scan(&rowId))

	exists, err := repo.ExistsByImportRow(ctx, rowId)
	require.NoError(t, err)
	assert.False(t, exists)

	entry := TimeLog{ClientId: clientId, StaffId: staffId, ServiceDate: day(4), Hours: decimal.NewFromInt(1),
		ImportId: importId, ImportRowId: &rowId}
	_, err = repo.Create(ctx, entry)
	require.NoError(t, err)

	exists, err = repo.ExistsByImportRow(ctx, rowId)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.Create(ctx, entry)
	assert.ErrorIs(t, err, ErrDuplicateImportRow)
}
