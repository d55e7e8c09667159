package user

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/homecare-coop/backoffice/internal/auth"
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

func setupTestRepository(t *testing.T) (context.Context, *UserRepoImpl) {
	test_utils.CleanDB(t, db)
	return context.Background(), NewUserRepo(db)
}

func TestUserRepoImpl_CreateAndGet(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	user := User{Uid: uuid.NewString(), Email: "Giulia@coop.example", FirstName: "Giulia", Role: auth.RoleManager, PasswordHash: "hash"}

	// when
	id, err := repo.CreateUser(ctx, user)
	require.NoError(t, err)

	// then
	byId, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Giulia@coop.example", byId.Email)
	assert.Equal(t, auth.RoleManager, byId.Role)

	byEmail, err := repo.GetUserByEmail(ctx, "giulia@COOP.example")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.Id)

	byUid, err := repo.GetUserByUid(ctx, user.Uid)
	require.NoError(t, err)
	assert.Equal(t, id, byUid.Id)
}

func TestUserRepoImpl_DuplicateEmail(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	_, err := repo.CreateUser(ctx, User{Uid: uuid.NewString(), Email: "dup@coop.example", Role: auth.RoleStaff, PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, User{Uid: uuid.NewString(), Email: "dup@coop.example", Role: auth.RoleStaff, PasswordHash: "h"})

	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserRepoImpl_UpdateDeleteCount(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	id, err := repo.CreateUser(ctx, User{Uid: uuid.NewString(), Email: "u@coop.example", Role: auth.RoleStaff, PasswordHash: "h"})
	require.NoError(t, err)

	updated, err := repo.UpdateUser(ctx, User{Id: id, FirstName: "New", Role: auth.RoleAdmin, PasswordHash: "h2"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.FirstName)
	assert.Equal(t, auth.RoleAdmin, updated.Role)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.DeleteUser(ctx, id))
	assert.ErrorIs(t, repo.DeleteUser(ctx, id), ErrUserNotFound)
	_, err = repo.GetUser(ctx, id)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
