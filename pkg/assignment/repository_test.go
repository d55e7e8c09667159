package assignment

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

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl) {
	test_utils.CleanDB(t, db)
	return context.Background(), NewRepository(db)
}

func TestRepositoryImpl_Lifecycle(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	clientId := test_utils.InsertClient(t, db, "Maria", "Rossi")
	staffId := test_utils.InsertStaff(t, db, "Luca", "Bianchi")

	created, err := repo.Create(ctx, Assignment{ClientId: clientId, StaffId: staffId, Type: TypePrimary,
		StartDate: date(2024, time.March, 1), IsActive: true})
	require.NoError(t, err)
	assert.NotZero(t, created.Id)
	assert.Equal(t, "Maria Rossi", created.ClientName)
	assert.Equal(t, "Luca Bianchi", created.StaffName)
	require.NotNil(t, created.StartDate)
	assert.Equal(t, *date(2024, time.March, 1), created.StartDate.UTC())
	assert.Nil(t, created.EndDate)

	created.Type = TypeSecondary
	created.EndDate = date(2024, time.June, 30)
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, TypeSecondary, updated.Type)
	require.NotNil(t, updated.EndDate)

	require.NoError(t, repo.Delete(ctx, created.Id))
	_, err = repo.Get(ctx, created.Id)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.Id), ErrAssignmentNotFound)
}

func TestRepositoryImpl_ListFilters(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	maria := test_utils.InsertClient(t, db, "Maria", "Rossi")
	giulia := test_utils.InsertClient(t, db, "Giulia", "Verdi")
	luca := test_utils.InsertStaff(t, db, "Luca", "Bianchi")
	sara := test_utils.InsertStaff(t, db, "Sara", "Gialli")

	for _, a := range []Assignment{
		{ClientId: maria, StaffId: luca, Type: TypePrimary, IsActive: true},
		{ClientId: maria, StaffId: sara, Type: TypeSecondary, IsActive: true},
		{ClientId: giulia, StaffId: luca, Type: TypePrimary, IsActive: false},
	} {
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)
	}

	byClient, err := repo.List(ctx, Filter{ClientId: maria})
	require.NoError(t, err)
	require.Len(t, byClient, 2)
	assert.Equal(t, sara, byClient[0].StaffId)

	byStaff, err := repo.List(ctx, Filter{StaffId: luca})
	require.NoError(t, err)
	require.Len(t, byStaff, 1)
	assert.Equal(t, maria, byStaff[0].ClientId)

	withInactive, err := repo.List(ctx, Filter{StaffId: luca, IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, withInactive, 2)
}

func TestRepositoryImpl_WriteErrors(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	clientId := test_utils.InsertClient(t, db, "Maria", "Rossi")
	staffId := test_utils.InsertStaff(t, db, "Luca", "Bianchi")

	_, err := repo.Create(ctx, Assignment{ClientId: clientId, StaffId: staffId, Type: TypePrimary, IsActive: true})
	require.NoError(t, err)

	_, err = repo.Create(ctx, Assignment{ClientId: clientId, StaffId: staffId, Type: TypeSecondary, IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicateAssignment)

	_, err = repo.Create(ctx, Assignment{ClientId: clientId, StaffId: staffId, Type: TypePrimary, IsActive: false})
	assert.NoError(t, err, "inactive history rows do not conflict")

	_, err = repo.Create(ctx, Assignment{ClientId: 9999, StaffId: staffId, Type: TypePrimary, IsActive: true})
	assert.ErrorIs(t, err, ErrUnknownReference)

	_, err = repo.Update(ctx, Assignment{Id: 9999, ClientId: clientId, StaffId: staffId, Type: TypePrimary})
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}
