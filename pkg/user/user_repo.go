package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/homecare-coop/backoffice/internal/auth"
	"github.com/homecare-coop/backoffice/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")
var ErrEmailTaken = errors.New("email already registered")

type Repo interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id int) error
	GetAllUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userColumns = `id, uid, email, first_name, last_name, role, password_hash`

func scanUser(row pgx.Row) (User, error) {
	var user User
	var role string
	err := row.Scan(&user.Id, &user.Uid, &user.Email, &user.FirstName, &user.LastName, &role, &user.PasswordHash)
	user.Role = auth.Role(role)
	return user, err
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	query := `INSERT INTO users (uid, email, first_name, last_name, role, password_hash)
				VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int
	err := u.db.QueryRow(ctx, query,
		user.Uid,
		user.Email,
		user.FirstName,
		user.LastName,
		string(user.Role),
		user.PasswordHash,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		log.Errorf("failed to create user: %v", err)
		return 0, err
	}
	return id, nil
}

func (u *UserRepoImpl) getOne(ctx context.Context, where string, arg any) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(u.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.getOne(ctx, "id = $1", id)
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.getOne(ctx, "uid = $1", uid)
}

func (u *UserRepoImpl) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return u.getOne(ctx, "lower(email) = lower($1)", email)
}

func (u *UserRepoImpl) UpdateUser(ctx context.Context, user User) (User, error) {
	query := `UPDATE users SET first_name = $1, last_name = $2, role = $3, password_hash = $4 WHERE id = $5`
	result, err := u.db.Exec(ctx, query, user.FirstName, user.LastName, string(user.Role), user.PasswordHash, user.Id)
	if err != nil {
		err = fmt.Errorf("could not update user: %w", err)
		log.Error(err)
		return User{}, err
	}
	if result.RowsAffected() == 0 {
		return User{}, ErrUserNotFound
	}
	return u.GetUser(ctx, user.Id)
}

func (u *UserRepoImpl) DeleteUser(ctx context.Context, id int) error {
	result, err := u.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		err = fmt.Errorf("could not delete user: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (u *UserRepoImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	rows, err := u.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		err = fmt.Errorf("could not query users: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (u *UserRepoImpl) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := u.db.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("could not count users: %w", err)
	}
	return count, nil
}
