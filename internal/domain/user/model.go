package user

import (
	"context"
	"errors"
	"time"
)

// Actor is the authenticated identity a request acts as. A nil *Actor is an
// anonymous caller.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) Actor() *Actor {
	return &Actor{ID: u.ID, Email: u.Email}
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already taken")
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
