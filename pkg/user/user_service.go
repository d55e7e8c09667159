package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/homecare-coop/backoffice/internal/auth"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrUserDataInvalid = errors.New("invalid user data")
var ErrDeletingSelf = errors.New("cannot delete the current user")

const minPasswordLength = 8

type Service interface {
	Authenticate(ctx context.Context, email string, password string) (User, error)
	GetCurrentUser(ctx context.Context) (User, error)
	CreateUser(ctx context.Context, user NewUser) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, user User, newPassword string) (User, error)
	DeleteUser(ctx context.Context, id int) error
	GetAllUsers(ctx context.Context) ([]User, error)
	EnsureAdminExists(ctx context.Context, email string, password string) error
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) Authenticate(ctx context.Context, email string, password string) (User, error) {
	found, err := u.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !auth.CheckPasswordHash(password, found.PasswordHash) {
		log.Debugf("password mismatch for user %s", found.Uid)
		return User{}, ErrInvalidCredentials
	}
	return found, nil
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) CreateUser(ctx context.Context, newUser NewUser) (User, error) {
	if err := validateNewUser(newUser); err != nil {
		return User{}, err
	}
	hash, err := auth.HashPassword(newUser.Password)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user := User{
		Uid:          uuid.NewString(),
		Email:        strings.TrimSpace(newUser.Email),
		FirstName:    newUser.FirstName,
		LastName:     newUser.LastName,
		Role:         newUser.Role,
		PasswordHash: hash,
	}
	userId, err := u.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.Id = userId
	return user, nil
}

func validateNewUser(newUser NewUser) error {
	if _, err := mail.ParseAddress(newUser.Email); err != nil {
		return fmt.Errorf("%w: email is not valid", ErrUserDataInvalid)
	}
	if !newUser.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrUserDataInvalid, newUser.Role)
	}
	if len(newUser.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", ErrUserDataInvalid, minPasswordLength)
	}
	return nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

// UpdateUser changes names and role; newPassword replaces the password when not empty.
func (u *UserServiceImpl) UpdateUser(ctx context.Context, user User, newPassword string) (User, error) {
	existing, err := u.repo.GetUser(ctx, user.Id)
	if err != nil {
		return User{}, err
	}
	if !user.Role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrUserDataInvalid, user.Role)
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Role = user.Role
	if newPassword != "" {
		if len(newPassword) < minPasswordLength {
			return User{}, fmt.Errorf("%w: password must have at least %d characters", ErrUserDataInvalid, minPasswordLength)
		}
		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		existing.PasswordHash = hash
	}
	return u.repo.UpdateUser(ctx, existing)
}

func (u *UserServiceImpl) DeleteUser(ctx context.Context, id int) error {
	currentId, err := CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	if currentId == id {
		return ErrDeletingSelf
	}
	return u.repo.DeleteUser(ctx, id)
}

func (u *UserServiceImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	return u.repo.GetAllUsers(ctx)
}

// EnsureAdminExists creates the bootstrap admin account when the user table is empty.
func (u *UserServiceImpl) EnsureAdminExists(ctx context.Context, email string, password string) error {
	count, err := u.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if email == "" || password == "" {
		log.Warn("no users exist and no admin credentials are configured; nobody will be able to log in")
		return nil
	}
	admin, err := u.CreateUser(ctx, NewUser{Email: email, FirstName: "Admin", Role: auth.RoleAdmin, Password: password})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Infof("Created admin user %s", admin.Email)
	return nil
}
