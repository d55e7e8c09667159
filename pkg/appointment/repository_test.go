package appointment

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
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
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, Appointment{ClientId: clientId, StaffId: &staffId, Start: start,
		End: start.Add(time.Hour), ServiceType: "SAD"})
	require.NoError(t, err)
	_, err = uuid.Parse(created.Id)
	require.NoError(t, err)
	require.NotNil(t, created.StaffId)
	assert.Equal(t, staffId, *created.StaffId)
	assert.True(t, start.Equal(created.Start))

	later, err := repo.Create(ctx, Appointment{ClientId: clientId, Start: start.Add(5 * time.Hour),
		End: start.Add(6 * time.Hour)})
	require.NoError(t, err)
	assert.Nil(t, later.StaffId)

	overlapping, err := repo.List(ctx, start.Add(30*time.Minute), start.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	assert.Equal(t, created.Id, overlapping[0].Id)

	starting, err := repo.StartingBetween(ctx, start.Add(time.Minute), start.Add(5*time.Hour+time.Minute))
	require.NoError(t, err)
	require.Len(t, starting, 1)
	assert.Equal(t, later.Id, starting[0].Id)

	created.Notes = "second floor"
	created.StaffId = nil
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "second floor", updated.Notes)
	assert.Nil(t, updated.StaffId)

	require.NoError(t, repo.Delete(ctx, created.Id))
	_, err = repo.Get(ctx, created.Id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.Id), ErrAppointmentNotFound)
}

func TestRepositoryImpl_UnknownClient(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, Appointment{ClientId: 999, Start: start, End: start.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrUnknownReference)

	missing := Appointment{Id: uuid.NewString(), ClientId: 1, Start: start, End: start.Add(time.Hour)}
	_, err = repo.Update(ctx, missing)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}
