package repository

import (
	"context"
	"errors"
	"fmt"

	"pollhub/internal/domain/user"
	"pollhub/internal/gateway"
)

type UserRepo struct {
	gw gateway.Gateway
}

func NewUserRepo(gw gateway.Gateway) *UserRepo {
	return &UserRepo{gw: gw}
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	_, err := r.gw.Insert(ctx, gateway.TableUsers, gateway.Record{
		"id":            u.ID,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"created_at":    u.CreatedAt,
	})
	if errors.Is(err, gateway.ErrUniqueViolation) {
		return user.ErrEmailTaken
	}
	return err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, gateway.Filter{"email": email})
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, gateway.Filter{"id": id})
}

func (r *UserRepo) getOne(ctx context.Context, f gateway.Filter) (*user.User, error) {
	rows, err := r.gw.Select(ctx, gateway.TableUsers, gateway.Query{Filter: f, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, user.ErrNotFound
	}

	row := rows[0]
	u := &user.User{
		ID:           asString(row["id"]),
		Email:        asString(row["email"]),
		PasswordHash: asString(row["password_hash"]),
	}
	if u.CreatedAt, err = asTime(row["created_at"]); err != nil {
		return nil, fmt.Errorf("user %s created_at: %w", u.ID, err)
	}
	return u, nil
}
