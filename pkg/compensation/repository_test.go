package compensation

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/homecare-coop/backoffice/internal/database"
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

type repoFixture struct {
	ctx      context.Context
	repo     *RepositoryImpl
	clientId int
	staffId  int
}

func setupTestRepository(t *testing.T) repoFixture {
	test_utils.CleanDB(t, db)
	return repoFixture{
		ctx:      context.Background(),
		repo:     NewRepository(db),
		clientId: test_utils.InsertClient(t, db, "Lucia", "Esposito"),
		staffId:  test_utils.InsertStaff(t, db, "Anna", "Bianchi"),
	}
}

func (f repoFixture) insertTimeLog(t *testing.T, d time.Time, hours string) int {
	var id int
	err := db.QueryRow(f.ctx, `INSERT INTO time_logs (client_id, staff_id, service_date, hours, service_type)
		VALUES ($1, $2, $3, $4, 'HCPQ') RETURNING id`, f.clientId, f.staffId, d, dec(hours)).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f repoFixture) compensation(t *testing.T) Compensation {
	first := f.insertTimeLog(t, date(2024, time.March, 4), "5")
	second := f.insertTimeLog(t, date(2024, time.March, 9), "5")
	return Compensation{
		StaffId: f.staffId, PeriodStart: march[0], PeriodEnd: march[1],
		RegularHours: dec("5"), WeekendHours: dec("5"), RegularAmount: dec("75"), WeekendAmount: dec("128.75"),
		TotalCompensation: dec("203.75"),
		Rate: AppliedRate{WeekdayRate: dec("15"), WeekendRate: dec("25.75"), HolidayRate: dec("25.75"),
			MileageRate: dec("0.60"), OvertimeMultiplier: dec("1.5")},
		Lines: []Line{
			{TimeLogId: first, ClientId: f.clientId, ServiceType: "HCPQ", ServiceDate: date(2024, time.March, 4), DayKind: Weekday,
				Hours: dec("5"), OvertimeHours: dec("0"), Mileage: dec("0"), Cost: dec("75")},
			{TimeLogId: second, ClientId: f.clientId, ServiceType: "HCPQ", ServiceDate: date(2024, time.March, 9), DayKind: Weekend,
				Hours: dec("5"), OvertimeHours: dec("0"), Mileage: dec("0"), Cost: dec("128.75")},
		},
	}
}

func TestRepositoryImpl_CreateAndGet(t *testing.T) {
	f := setupTestRepository(t)
	comp := f.compensation(t)

	created, err := f.repo.Create(f.ctx, comp)
	require.NoError(t, err)

	assert.NotZero(t, created.Id)
	assert.Equal(t, "Anna Bianchi", created.StaffName)
	assert.Equal(t, StatusApproved, created.Status)
	assert.True(t, dec("203.75").Equal(created.TotalCompensation))
	assert.True(t, dec("25.75").Equal(created.Rate.WeekendRate))
	require.Len(t, created.Lines, 2)
	assert.Equal(t, Weekend, created.Lines[1].DayKind)
	assert.True(t, dec("128.75").Equal(created.Lines[1].Cost))

	_, err = f.repo.Create(f.ctx, Compensation{StaffId: f.staffId, PeriodStart: march[0], PeriodEnd: march[1], Rate: comp.Rate})
	assert.ErrorIs(t, err, ErrCompensationExists)

	compensated, err := f.repo.CompensatedTimeLogs(f.ctx, []int{comp.Lines[0].TimeLogId, 9999})
	require.NoError(t, err)
	assert.Equal(t, []int{comp.Lines[0].TimeLogId}, compensated)
}

func TestRepositoryImpl_ListMarkPaidDelete(t *testing.T) {
	f := setupTestRepository(t)
	created, err := f.repo.Create(f.ctx, f.compensation(t))
	require.NoError(t, err)

	overlapping, err := f.repo.List(f.ctx, Filter{From: date(2024, time.March, 15), To: date(2024, time.April, 15)})
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)
	later, err := f.repo.List(f.ctx, Filter{From: date(2024, time.April, 1)})
	require.NoError(t, err)
	assert.Empty(t, later)

	paidAt := time.Date(2024, time.April, 3, 12, 0, 0, 0, time.UTC)
	paid, err := f.repo.MarkPaid(f.ctx, created.Id, paidAt)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paidAt.Equal(*paid.PaidAt))

	_, err = f.repo.MarkPaid(f.ctx, created.Id, paidAt)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	allocated, err := f.repo.HasAllocations(f.ctx, created.Id)
	require.NoError(t, err)
	assert.False(t, allocated)

	require.NoError(t, f.repo.Delete(f.ctx, created.Id))
	_, err = f.repo.Get(f.ctx, created.Id)
	assert.ErrorIs(t, err, ErrCompensationNotFound)
	_, err = f.repo.MarkPaid(f.ctx, created.Id, paidAt)
	assert.ErrorIs(t, err, ErrCompensationNotFound)
}

func TestRepositoryImpl_TimeLogPricedOnce(t *testing.T) {
	f := setupTestRepository(t)
	comp := f.compensation(t)
	_, err := f.repo.Create(f.ctx, comp)
	require.NoError(t, err)

	overlapping := comp
	overlapping.PeriodStart = date(2024, time.March, 4)
	_, err = f.repo.Create(f.ctx, overlapping)
	assert.ErrorIs(t, err, ErrTimeLogsAlreadyCompensated)

	_, err = db.Exec(f.ctx, `INSERT INTO compensation_lines (compensation_id, time_log_id, client_id, service_date, day_kind, hours, cost)
		SELECT compensation_id, time_log_id, client_id, service_date, day_kind, hours, cost FROM compensation_lines LIMIT 1`)
	require.Error(t, err)
	assert.Equal(t, "uq_compensation_lines_time_log", database.ViolatedConstraint(err))
}

func TestRepositoryImpl_ConcurrentCreatesPriceLogOnce(t *testing.T) {
	f := setupTestRepository(t)
	comp := f.compensation(t)
	periods := []time.Time{march[0], date(2024, time.March, 2)}

	var wg sync.WaitGroup
	errs := make([]error, len(periods))
	for i, start := range periods {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := comp
			c.PeriodStart = start
			_, errs[i] = f.repo.Create(f.ctx, c)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrTimeLogsAlreadyCompensated)
	}
	assert.Equal(t, 1, succeeded)

	var lines int
	require.NoError(t, db.QueryRow(f.ctx, "SELECT COUNT(*) FROM compensation_lines").Scan(&lines))
	assert.Equal(t, 2, lines)
}

func TestRepositoryImpl_CreateRejectsChangedLogs(t *testing.T) {
	f := setupTestRepository(t)
	comp := f.compensation(t)
	_, err := db.Exec(f.ctx, "UPDATE time_logs SET hours = 7 WHERE id = $1", comp.Lines[0].TimeLogId)
	require.NoError(t, err)

	_, err = f.repo.Create(f.ctx, comp)

	assert.ErrorIs(t, err, ErrTimeLogsChanged)
	list, err := f.repo.List(f.ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
