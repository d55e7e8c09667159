package client

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

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl) {
	test_utils.CleanDB(t, db)
	return context.Background(), NewRepository(db)
}

func TestRepositoryImpl_CreateGetDefaultStatus(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	dob := time.Date(1938, 11, 3, 0, 0, 0, 0, time.UTC)

	// when
	created, err := repo.Create(ctx, Client{
		FirstName: "Giovanni", LastName: "Russo", DateOfBirth: &dob, Status: StatusActive,
		MonthlyBudget: decimal.RequireFromString("640.50"), ExternalId: "C-001",
	})
	require.NoError(t, err)

	// then
	fetched, err := repo.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Giovanni", fetched.FirstName)
	assert.Equal(t, StatusActive, fetched.Status)
	require.NotNil(t, fetched.DateOfBirth)
	assert.Equal(t, dob, fetched.DateOfBirth.UTC())
	assert.True(t, decimal.RequireFromString("640.50").Equal(fetched.MonthlyBudget))
	assert.Empty(t, fetched.Email)
}

func TestRepositoryImpl_ExternalIdUniqueButOptional(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	_, err := repo.Create(ctx, Client{FirstName: "A", LastName: "A", Status: StatusActive})
	require.NoError(t, err)
	_, err = repo.Create(ctx, Client{FirstName: "B", LastName: "B", Status: StatusActive})
	require.NoError(t, err)
	_, err = repo.Create(ctx, Client{FirstName: "C", LastName: "C", Status: StatusActive, ExternalId: "X1"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, Client{FirstName: "D", LastName: "D", Status: StatusActive, ExternalId: "X1"})

	assert.ErrorIs(t, err, ErrDuplicateExternalId)
	found, err := repo.FindByExternalId(ctx, "X1")
	require.NoError(t, err)
	assert.Equal(t, "C", found.FirstName)
}

func TestRepositoryImpl_ListFilterAndSearch(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	_, _ = repo.Create(ctx, Client{FirstName: "Elena", LastName: "Costa", Status: StatusActive, TaxCode: "CSTLNE50"})
	_, _ = repo.Create(ctx, Client{FirstName: "Franco", LastName: "Bruni", Status: StatusInactive})

	all, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Bruni", all[0].LastName)

	inactive, err := repo.List(ctx, Filter{Status: StatusInactive})
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "Franco", inactive[0].FirstName)

	byTax, err := repo.List(ctx, Filter{Search: "cstl"})
	require.NoError(t, err)
	require.Len(t, byTax, 1)

	found, err := repo.FindByTaxCode(ctx, "cstlne50")
	require.NoError(t, err)
	assert.Equal(t, "Elena", found.FirstName)

	count, err := repo.CountByStatus(ctx, StatusActive)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRepositoryImpl_UpdateDelete(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	created, err := repo.Create(ctx, Client{FirstName: "Rita", LastName: "Galli", Status: StatusActive})
	require.NoError(t, err)

	created.Status = StatusInactive
	created.Phone = "+39 333 1234567"
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, updated.Status)
	assert.Equal(t, "+39 333 1234567", updated.Phone)

	_, err = repo.Update(ctx, Client{Id: 999, FirstName: "x", LastName: "y", Status: StatusActive})
	assert.ErrorIs(t, err, ErrClientNotFound)

	require.NoError(t, repo.Delete(ctx, created.Id))
	assert.ErrorIs(t, repo.Delete(ctx, created.Id), ErrClientNotFound)
}
