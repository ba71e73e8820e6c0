package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/library/library-go/internal/metrics"
	"github.com/library/library-go/internal/model"
	"github.com/library/library-go/internal/repository"
)

// LoanService drives the loan lifecycle and the availability flag it implies.
type LoanService struct {
	store   repository.Store
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLoanService creates a new LoanService.
func NewLoanService(store repository.Store, m *metrics.Metrics) *LoanService {
	return &LoanService{
		store:   store,
		metrics: m,
		now:     time.Now,
	}
}

// CreateLoan lends a book to a borrower. The existence check, the active-loan
// check, the insert and the availability change commit together or not at all.
func (s *LoanService) CreateLoan(ctx context.Context, borrowerID int64, req model.CreateLoanRequest) (*model.Loan, error) {
	if req.BookID <= 0 {
		return nil, validationError("book_id", "is required")
	}

	loanDate := s.now()
	if req.LoanDate != nil {
		loanDate = *req.LoanDate
	}
	loan := &model.Loan{
		UserID:   borrowerID,
		BookID:   req.BookID,
		LoanDate: loanDate.UTC().Truncate(time.Microsecond),
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, borrowerID); err != nil {
			return err
		}

		book, err := tx.Books().GetByIDForUpdate(ctx, req.BookID)
		if err != nil {
			return err
		}

		if _, err := tx.Loans().FindActive(ctx, borrowerID, req.BookID); err == nil {
			return ErrAlreadyBorrowed
		} else if !errors.Is(err, repository.ErrLoanNotFound) {
			return err
		}

		if !book.Available {
			slog.Warn("lending a book that is marked unavailable",
				"book_id", book.ID, "user_id", borrowerID)
		}

		if err := tx.Loans().Create(ctx, loan); err != nil {
			return err
		}
		return tx.Books().SetAvailability(ctx, book.ID, false)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			s.metrics.LoanConflicts.WithLabelValues("create").Inc()
			return nil, err
		case errors.Is(err, repository.ErrDuplicateLoan):
			s.metrics.LoanConflicts.WithLabelValues("create").Inc()
			return nil, ErrDuplicateLoan
		case errors.Is(err, repository.ErrBookNotFound):
			return nil, ErrBookNotFound
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("create loan: %w", err)
	}

	s.metrics.LoansCreated.Inc()
	slog.Info("loan created", "loan_id", loan.ID, "book_id", loan.BookID, "user_id", borrowerID)
	return loan, nil
}

// ReturnLoan closes a loan held by userID, stamping today's date and making
// the book available again. Loans owned by other users are reported as not found.
func (s *LoanService) ReturnLoan(ctx context.Context, loanID, userID int64) (*model.Loan, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var loan *model.Loan
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		loan, err = tx.Loans().GetForBorrower(ctx, loanID, userID, true)
		if err != nil {
			return err
		}
		if !loan.Active() {
			return ErrAlreadyReturned
		}

		if err := tx.Loans().MarkReturned(ctx, loan.ID, today); err != nil {
			if errors.Is(err, repository.ErrLoanNotFound) {
				return ErrAlreadyReturned
			}
			return err
		}
		if err := tx.Books().SetAvailability(ctx, loan.BookID, true); err != nil {
			return err
		}

		loan.ReturnDate = &today
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTransition):
			s.metrics.LoanConflicts.WithLabelValues("return").Inc()
			return nil, err
		case errors.Is(err, repository.ErrLoanNotFound):
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("return loan: %w", err)
	}

	s.metrics.LoansReturned.Inc()
	slog.Info("loan returned", "loan_id", loan.ID, "book_id", loan.BookID, "user_id", userID)
	return loan, nil
}

// ListActiveLoansForUser returns the user's unreturned loans. Having none is
// reported as ErrNoActiveLoans.
func (s *LoanService) ListActiveLoansForUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	loans, err := s.store.Loans().List(ctx, model.LoanFilter{UserID: userID, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list active loans: %w", err)
	}
	if len(loans) == 0 {
		return nil, ErrNoActiveLoans
	}
	return loans, nil
}

// ListLoanHistoryForUser returns every loan of the user, newest first.
func (s *LoanService) ListLoanHistoryForUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	loans, err := s.store.Loans().List(ctx, model.LoanFilter{UserID: userID, NewestFirst: true})
	if err != nil {
		return nil, fmt.Errorf("list loan history: %w", err)
	}
	return loans, nil
}

// ListLoansForUser returns every loan of the user in creation order.
func (s *LoanService) ListLoansForUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	loans, err := s.store.Loans().List(ctx, model.LoanFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}
