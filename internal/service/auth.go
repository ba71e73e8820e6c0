package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/library/library-go/internal/crypto"
	"github.com/library/library-go/internal/metrics"
	"github.com/library/library-go/internal/model"
	"github.com/library/library-go/internal/repository"
)

const (
	maxNameLength  = 50
	maxEmailLength = 100
	maxPhoneLength = 20
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// AuthService handles registration, credential checks and bearer tokens.
type AuthService struct {
	store   repository.Store
	hasher  PasswordHasher
	tokens  *crypto.TokenIssuer
	metrics *metrics.Metrics

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repository.Store, hasher PasswordHasher, tokens *crypto.TokenIssuer, m *metrics.Metrics) *AuthService {
	return &AuthService{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		metrics: m,
	}
}

// Register creates a new, non-admin user account.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	user, err := validateRegistration(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Users().GetByEmail(ctx, user.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

func validateRegistration(req model.CreateUserRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	switch {
	case name == "":
		return nil, validationError("name", "is required")
	case len(name) > maxNameLength:
		return nil, validationError("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	case email == "":
		return nil, validationError("email", "is required")
	case len(email) > maxEmailLength:
		return nil, validationError("email", fmt.Sprintf("must be at most %d characters", maxEmailLength))
	case !validEmail(email):
		return nil, validationError("email", "is not a valid address")
	case req.Password == "":
		return nil, validationError("password", "is required")
	}

	var phone *string
	if req.Phone != nil {
		if p := strings.TrimSpace(*req.Phone); p != "" {
			if len(p) > maxPhoneLength {
				return nil, validationError("phone", fmt.Sprintf("must be at most %d characters", maxPhoneLength))
			}
			phone = &p
		}
	}

	return &model.User{Name: name, Email: email, Phone: phone}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail accepts a bare addr-spec only; display names are rejected.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

// Authenticate checks credentials. An unknown email and a wrong password
// produce the same error and take about the same time.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("look up user: %w", err)
		}
		_, _ = s.hasher.Verify(password, s.dummy())
		s.metrics.AuthFailures.WithLabelValues("credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		s.metrics.AuthFailures.WithLabelValues("credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("library-timing-equalizer")
		if err != nil {
			slog.Error("failed to build dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// IssueToken signs a bearer token for user.
func (s *AuthService) IssueToken(user *model.User) (string, time.Time, error) {
	return s.tokens.Issue(user.Email, user.IsAdmin)
}

// Login authenticates and returns a bearer token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenResponse, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return model.TokenResponse{}, err
	}

	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("issue token: %w", err)
	}

	return model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user.ToResponse(),
	}, nil
}

// ResolveToken verifies a bearer token and returns the current stored user
// it names. The token's admin claim is not trusted.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.metrics.AuthFailures.WithLabelValues("token").Inc()
		return nil, ErrInvalidToken
	}

	user, err := s.store.Users().GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.AuthFailures.WithLabelValues("token").Inc()
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// SetAdmin grants or revokes admin rights. Only reachable from the admin CLI.
func (s *AuthService) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	if err := s.store.Users().SetAdmin(ctx, normalizeEmail(email), isAdmin); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	slog.Info("admin flag changed", "email", normalizeEmail(email), "is_admin", isAdmin)
	return nil
}
