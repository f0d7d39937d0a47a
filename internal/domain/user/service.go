package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pollhub/internal/platform/apperr"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// dummyHash is compared against when the email is unknown, so a failed
// login costs the same whether or not the account exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("pollhub-no-such-user"), bcrypt.DefaultCost)

type credentials struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
}

type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		logger:   slog.Default(),
		now:      time.Now,
	}
}

func (s *Service) WithLogger(l *slog.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if err := s.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return nil, apperr.Validation(describeCredentials(err), err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(apperr.CodeInternal, "could not register user", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperr.Conflict(apperr.CodeConflict, "email already taken", err)
		}
		s.logger.Error("user create failed", "error", err)
		return nil, apperr.Store(err)
	}

	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, apperr.Unauthorized(apperr.CodeUnauthorized, "invalid credentials", ErrInvalidCredentials)
		}
		s.logger.Error("user lookup failed", "error", err)
		return nil, apperr.Store(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized(apperr.CodeUnauthorized, "invalid credentials", ErrInvalidCredentials)
	}

	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeNotFound, "user not found", err)
		}
		return nil, apperr.Store(err)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func describeCredentials(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid credentials"
	}
	switch fe := verrs[0]; fe.Field() {
	case "Email":
		return "valid email required"
	case "Password":
		if fe.Tag() == "max" {
			return "password too long"
		}
		return "password must be at least 8 characters"
	}
	return "invalid credentials"
}
