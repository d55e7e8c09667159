package data_import

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
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

func newRecord(filename string, uploadedAt time.Time) Record {
	return Record{Id: uuid.NewString(), Filename: filename, Status: StatusProcessing, UploadedAt: uploadedAt}
}

func TestRepositoryImpl_Lifecycle(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	uploadedAt := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, newRecord("marzo.csv", uploadedAt))
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, created.Status)
	assert.Equal(t, SyncPending, created.SyncStatus)
	assert.Empty(t, created.ErrorLog)

	start := time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)
	hours := decimal.RequireFromString("1.5")
	processed, err := repo.SaveRows(ctx, created.Id, []Row{
		{RowNumber: 2, Identifier: "A-1", ClientFirstName: "Maria", ScheduledStart: &start, Duration: &hours,
			Raw: map[string]string{"Identificativo": "A-1"}},
		{RowNumber: 3, Raw: map[string]string{}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	completedAt := uploadedAt.Add(time.Minute)
	created.Status = StatusCompleted
	created.TotalRows = 2
	created.ProcessedRows = 2
	created.ErrorLog = []RowError{{Row: 3, Column: "Durata", Message: "invalid duration"}}
	created.CompletedAt = &completedAt
	completed, err := repo.Complete(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, created.ErrorLog, completed.ErrorLog)
	assert.True(t, completedAt.Equal(*completed.CompletedAt))

	rows, err := repo.Rows(ctx, created.Id)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A-1", rows[0].Identifier)
	assert.True(t, start.Equal(*rows[0].ScheduledStart))
	assert.Equal(t, "1.5", rows[0].Duration.String())
	assert.Equal(t, "A-1", rows[0].Raw["Identificativo"])
	assert.Equal(t, "", rows[1].Identifier)
	assert.Nil(t, rows[1].ScheduledStart)

	require.NoError(t, repo.SetSyncStatus(ctx, created.Id, SyncSynced))
	fetched, err := repo.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, SyncSynced, fetched.SyncStatus)

	require.NoError(t, repo.Delete(ctx, created.Id))
	rows, err = repo.Rows(ctx, created.Id)
	require.NoError(t, err)
	assert.Empty(t, rows)
	_, err = repo.Get(ctx, created.Id)
	assert.ErrorIs(t, err, ErrImportNotFound)
}

func TestRepositoryImpl_ListAndMissing(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	base := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

	older, err := repo.Create(ctx, newRecord("a.xlsx", base))
	require.NoError(t, err)
	newer, err := repo.Create(ctx, newRecord("b.xlsx", base.Add(time.Hour)))
	require.NoError(t, err)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.Id, records[0].Id)
	assert.Equal(t, older.Id, records[1].Id)

	missing := uuid.NewString()
	_, err = repo.Get(ctx, missing)
	assert.ErrorIs(t, err, ErrImportNotFound)
	assert.ErrorIs(t, repo.SetSyncStatus(ctx, missing, SyncSynced), ErrImportNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, missing), ErrImportNotFound)
	_, err = repo.Complete(ctx, newRecord("c.csv", base))
	assert.ErrorIs(t, err, ErrImportNotFound)
}
