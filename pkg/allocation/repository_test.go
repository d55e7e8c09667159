package allocation

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/homecare-coop/backoffice/internal/test_utils"
	"github.com/homecare-coop/backoffice/pkg/compensation"
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

type repoFixture struct {
	ctx      context.Context
	repo     *RepositoryImpl
	clientId int
	comp     compensation.Compensation
	budgetId int
}

// setupTestRepository stores a March compensation of three 100.00 lines for one client and a 200.00 budget.
func setupTestRepository(t *testing.T) repoFixture {
	test_utils.CleanDB(t, db)
	ctx := context.Background()
	clientId := test_utils.InsertClient(t, db, "Maria", "Rossi")
	staffId := test_utils.InsertStaff(t, db, "Anna", "Bianchi")

	lines := make([]compensation.Line, 0, 3)
	for day := 4; day <= 6; day++ {
		var timeLogId int
		err := db.QueryRow(ctx, `INSERT INTO time_logs (client_id, staff_id, service_date, hours, service_type)
				VALUES ($1, $2, $3, $4, 'HCPQ') RETURNING id`,
			clientId, staffId, date(2024, time.March, day), dec("4")).Scan(&timeLogId)
		require.NoError(t, err)
		lines = append(lines, compensation.Line{TimeLogId: timeLogId, ClientId: clientId, ServiceType: "HCPQ",
			ServiceDate: date(2024, time.March, day), DayKind: compensation.Weekday, Hours: dec("4"),
			OvertimeHours: decimal.Zero, Mileage: decimal.Zero, Cost: dec("100")})
	}
	comp, err := compensation.NewRepository(db).Create(ctx, compensation.Compensation{
		StaffId: staffId, PeriodStart: marchStart, PeriodEnd: marchEnd, RegularHours: dec("12"),
		TotalCompensation: dec("300"), Lines: lines,
	})
	require.NoError(t, err)

	var budgetId int
	err = db.QueryRow(ctx, `INSERT INTO client_budget_allocations (client_id, budget_type_id, total_amount, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		clientId, test_utils.BudgetTypeId(t, db, "HCPQ"), dec("200"), date(2024, 1, 1), date(2024, 12, 31)).Scan(&budgetId)
	require.NoError(t, err)

	return repoFixture{ctx: ctx, repo: NewRepository(db), clientId: clientId, comp: comp, budgetId: budgetId}
}

func (f repoFixture) plans(desired *decimal.Decimal) []Plan {
	return []Plan{{Group: groupLines(f.comp.Lines)[0], AllocationId: f.budgetId, Desired: desired}}
}

func (f repoFixture) usedAmount(t *testing.T) decimal.Decimal {
	var used decimal.Decimal
	require.NoError(t, db.QueryRow(f.ctx, "SELECT used_amount FROM client_budget_allocations WHERE id = $1", f.budgetId).Scan(&used))
	return used
}

func TestRepositoryImpl_ApproveChargesBudget(t *testing.T) {
	f := setupTestRepository(t)

	records, err := f.repo.Approve(f.ctx, f.comp, f.plans(nil), false)
	require.NoError(t, err)
	require.Len(t, records, 3)
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
		assert.Equal(t, f.budgetId, r.BudgetAllocationId)
		assert.NotZero(t, r.Id)
	}
	assert.Equal(t, "200.00", total.StringFixed(2))
	assert.Equal(t, "200.00", f.usedAmount(t).StringFixed(2))

	listed, err := f.repo.ListByCompensation(f.ctx, f.comp.Id)
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	_, err = f.repo.Approve(f.ctx, f.comp, f.plans(nil), false)
	assert.ErrorIs(t, err, ErrAlreadyAllocated)
	assert.Equal(t, "200.00", f.usedAmount(t).StringFixed(2))
}

func TestRepositoryImpl_ApproveBudgetExceededRollsBack(t *testing.T) {
	f := setupTestRepository(t)
	desired := dec("250")

	_, err := f.repo.Approve(f.ctx, f.comp, f.plans(&desired), false)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.True(t, f.usedAmount(t).IsZero())
	listed, err := f.repo.ListByCompensation(f.ctx, f.comp.Id)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = f.repo.Approve(f.ctx, f.comp, f.plans(&desired), true)
	require.NoError(t, err)
	assert.Equal(t, "250.00", f.usedAmount(t).StringFixed(2))
}

func TestRepositoryImpl_ApproveUnknownCompensation(t *testing.T) {
	f := setupTestRepository(t)
	missing := f.comp
	missing.Id = 999999

	_, err := f.repo.Approve(f.ctx, missing, f.plans(nil), false)
	assert.ErrorIs(t, err, compensation.ErrCompensationNotFound)
}

func TestRepositoryImpl_ConcurrentApprovalsDoNotOverdraw(t *testing.T) {
	f := setupTestRepository(t)

	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := f.repo.Approve(f.ctx, f.comp, f.plans(nil), false)
			errs <- err
		}()
	}
	var succeeded int
	for range 2 {
		if err := <-errs; err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyAllocated)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, "200.00", f.usedAmount(t).StringFixed(2))
}

func TestRepositoryImpl_ApproveRejectsPaidCompensation(t *testing.T) {
	f := setupTestRepository(t)
	_, err := compensation.NewRepository(db).MarkPaid(f.ctx, f.comp.Id, date(2024, time.April, 10))
	require.NoError(t, err)

	_, err = f.repo.Approve(f.ctx, f.comp, f.plans(nil), false)

	assert.ErrorIs(t, err, ErrCompensationPaid)
	assert.True(t, f.usedAmount(t).IsZero())
}

func TestRepositoryImpl_ZeroApprovalIsRecorded(t *testing.T) {
	f := setupTestRepository(t)
	zero := dec("0")

	_, err := f.repo.Approve(f.ctx, f.comp, f.plans(&zero), false)
	require.NoError(t, err)

	stored, err := compensation.NewRepository(db).Get(f.ctx, f.comp.Id)
	require.NoError(t, err)
	assert.NotNil(t, stored.AllocatedAt)

	_, err = f.repo.Approve(f.ctx, f.comp, f.plans(&zero), false)
	assert.ErrorIs(t, err, ErrAlreadyAllocated)
	assert.True(t, f.usedAmount(t).IsZero())
}
