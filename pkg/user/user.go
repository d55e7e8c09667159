package user

import "github.com/homecare-coop/backoffice/internal/auth"

type User struct {
	Id           int
	Uid          string
	Email        string
	FirstName    string
	LastName     string
	Role         auth.Role
	PasswordHash string
}

func (u User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return u.FirstName + " " + u.LastName
}

// NewUser carries the fields needed to register an account, with the password in clear text.
type NewUser struct {
	Email     string
	FirstName string
	LastName  string
	Role      auth.Role
	Password  string
}
