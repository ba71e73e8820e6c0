package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/library/library-go/internal/crypto"
	"github.com/library/library-go/internal/metrics"
	"github.com/library/library-go/internal/model"
	"github.com/library/library-go/internal/repository"
	"github.com/library/library-go/internal/testutil"
)

type fixture struct {
	store   *repository.SQLStore
	metrics *metrics.Metrics
	tokens  *crypto.TokenIssuer
	auth    *AuthService
	catalog *CatalogService
	loans   *LoanService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testutil.NewSQLiteStore(t)
	m := metrics.New()
	tokens := crypto.NewTokenIssuer("test-secret", time.Hour)
	hasher := crypto.NewHasher(crypto.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	return &fixture{
		store:   store,
		metrics: m,
		tokens:  tokens,
		auth:    NewAuthService(store, hasher, tokens, m),
		catalog: NewCatalogService(store),
		loans:   NewLoanService(store, m),
	}
}

func (f *fixture) register(t *testing.T, name, email string) *model.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), model.CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) admin(t *testing.T) *model.User {
	t.Helper()
	user := f.register(t, "Admin", "admin@example.com")
	require.NoError(t, f.auth.SetAdmin(context.Background(), user.Email, true))
	user.IsAdmin = true
	return user
}

func (f *fixture) book(t *testing.T, title string) *model.Book {
	t.Helper()
	book, err := f.catalog.CreateBook(context.Background(), model.CreateBookRequest{Title: title})
	require.NoError(t, err)
	return book
}

func ptr[T any](v T) *T { return &v }
