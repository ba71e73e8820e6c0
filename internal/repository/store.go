package repository

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/library/library-go/internal/model"
)

// Users is the credential store.
type Users interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	SetAdmin(ctx context.Context, email string, isAdmin bool) error
}

// Books is the catalog store.
type Books interface {
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, limit, offset uint) ([]model.Book, error)
	Update(ctx context.Context, id int64, changes model.BookChanges) error
	SetAvailability(ctx context.Context, id int64, available bool) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, search model.BookSearch) ([]model.Book, error)
}

// Loans is the loan store.
type Loans interface {
	Create(ctx context.Context, loan *model.Loan) error
	FindActive(ctx context.Context, userID, bookID int64) (*model.Loan, error)
	GetForBorrower(ctx context.Context, id, userID int64, forUpdate bool) (*model.Loan, error)
	MarkReturned(ctx context.Context, id int64, returnDate time.Time) error
	List(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error)
	CountActiveForBook(ctx context.Context, bookID int64) (int, error)
}

// Store groups the stores and runs units of work atomically.
type Store interface {
	Users() Users
	Books() Books
	Loans() Loans

	// InTx runs fn inside one transaction, passing a Store bound to it.
	// fn may be called more than once if the database reports a lock conflict,
	// so it must not have side effects outside the store.
	InTx(ctx context.Context, fn func(Store) error) error
}

// RetryPolicy configures how InTx retries transactions that hit lock conflicts.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	JitterFactor float64
}

// DefaultRetryPolicy retries up to 5 times: 0ms, 10ms, 20ms, 40ms, 80ms (with 30% jitter).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  5,
		BaseDelay:    10 * time.Millisecond,
		JitterFactor: 0.3,
	}
}

// SQLStore implements Store over MySQL or SQLite.
type SQLStore struct {
	db    *sqlx.DB
	q     sqlx.ExtContext
	qb    goqu.DialectWrapper
	inTx  bool
	retry RetryPolicy
}

// NewStore creates a SQLStore over db. The goqu dialect follows the driver name.
func NewStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		db:    db,
		q:     db,
		qb:    goqu.Dialect(db.DriverName()),
		retry: DefaultRetryPolicy(),
	}
}

// WithRetryPolicy returns a copy of s using the given retry policy.
func (s *SQLStore) WithRetryPolicy(p RetryPolicy) *SQLStore {
	c := *s
	c.retry = p
	return &c
}

func (s *SQLStore) Users() Users {
	return &UserRepository{q: s.q, qb: s.qb}
}

func (s *SQLStore) Books() Books {
	return &BookRepository{q: s.q, qb: s.qb, lockRows: s.supportsRowLocks()}
}

func (s *SQLStore) Loans() Loans {
	return &LoanRepository{q: s.q, qb: s.qb, lockRows: s.supportsRowLocks()}
}

// supportsRowLocks reports whether SELECT ... FOR UPDATE is available.
// SQLite locks the whole database for the duration of an immediate transaction instead.
func (s *SQLStore) supportsRowLocks() bool {
	return s.db.DriverName() == DriverMySQL
}

func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		txStore := &SQLStore{db: s.db, q: tx, qb: s.qb, inTx: true, retry: s.retry}
		if err := fn(txStore); err != nil {
			return err
		}

		return tx.Commit()
	})
}

// withRetry runs fn, retrying with exponential backoff while it fails with a lock conflict.
// Any other error is returned immediately.
func (s *SQLStore) withRetry(ctx context.Context, fn func(context.Context) error) error {
	attempts := s.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := s.retry.BaseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * s.retry.JitterFactor //nolint:gosec // jitter does not need crypto randomness
			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil || !isLockConflict(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
