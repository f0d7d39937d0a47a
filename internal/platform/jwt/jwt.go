package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pollhub/internal/domain/user"
)

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewManager(secret, issuer string) *Manager {
	if issuer == "" {
		issuer = "pollhub"
	}
	return &Manager{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (m *Manager) Generate(actor *user.Actor, ttl time.Duration) (string, error) {
	if actor == nil || actor.ID == "" {
		return "", errors.New("jwt: actor required")
	}
	now := m.now()
	claims := Claims{
		UserID: actor.ID,
		Email:  actor.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != "" {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

// Verify resolves a bearer token to the actor it was issued for.
func (m *Manager) Verify(_ context.Context, token string) (*user.Actor, error) {
	claims, err := m.Parse(token)
	if err != nil {
		return nil, err
	}
	return &user.Actor{ID: claims.UserID, Email: claims.Email}, nil
}
