package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/library/library-go/internal/model"
)

var loanColumns = []interface{}{"id", "user_id", "book_id", "loan_date", "return_date"}

// LoanRepository handles loan persistence operations.
type LoanRepository struct {
	q        sqlx.ExtContext
	qb       goqu.DialectWrapper
	lockRows bool
}

// Create records a new loan and sets the generated ID on it.
func (r *LoanRepository) Create(ctx context.Context, loan *model.Loan) error {
	query, args, err := r.qb.Insert("loans").Rows(goqu.Record{
		"user_id":     loan.UserID,
		"book_id":     loan.BookID,
		"loan_date":   loan.LoanDate,
		"return_date": loan.ReturnDate,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateLoan
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	loan.ID = id
	return nil
}

// FindActive returns the unreturned loan of bookID held by userID.
func (r *LoanRepository) FindActive(ctx context.Context, userID, bookID int64) (*model.Loan, error) {
	ds := r.qb.From("loans").Select(loanColumns...).Where(
		goqu.C("user_id").Eq(userID),
		goqu.C("book_id").Eq(bookID),
		goqu.C("return_date").IsNull(),
	).Limit(1)
	return r.getOne(ctx, ds)
}

// GetForBorrower returns loan id only if it belongs to userID. A loan owned by
// somebody else is reported as not found.
func (r *LoanRepository) GetForBorrower(ctx context.Context, id, userID int64, forUpdate bool) (*model.Loan, error) {
	ds := r.qb.From("loans").Select(loanColumns...).Where(
		goqu.C("id").Eq(id),
		goqu.C("user_id").Eq(userID),
	)
	if forUpdate && r.lockRows {
		ds = ds.ForUpdate(exp.Wait)
	}
	return r.getOne(ctx, ds)
}

// MarkReturned stamps the return date on a loan that is still active.
// It returns ErrLoanNotFound when no active loan with that ID exists.
func (r *LoanRepository) MarkReturned(ctx context.Context, id int64, returnDate time.Time) error {
	query, args, err := r.qb.Update("loans").
		Set(goqu.Record{"return_date": returnDate}).
		Where(goqu.C("id").Eq(id), goqu.C("return_date").IsNull()).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrLoanNotFound
	}
	return nil
}

// List returns the loans matching filter.
func (r *LoanRepository) List(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	ds := r.qb.From("loans").Select(loanColumns...)
	if filter.UserID != 0 {
		ds = ds.Where(goqu.C("user_id").Eq(filter.UserID))
	}
	if filter.ActiveOnly {
		ds = ds.Where(goqu.C("return_date").IsNull())
	}
	if filter.NewestFirst {
		ds = ds.Order(goqu.C("loan_date").Desc(), goqu.C("id").Desc())
	} else {
		ds = ds.Order(goqu.C("id").Asc())
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	loans := []model.Loan{}
	if err := sqlx.SelectContext(ctx, r.q, &loans, query, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

// CountActiveForBook returns how many unreturned loans reference bookID.
func (r *LoanRepository) CountActiveForBook(ctx context.Context, bookID int64) (int, error) {
	query, args, err := r.qb.From("loans").
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("book_id").Eq(bookID), goqu.C("return_date").IsNull()).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, err
	}

	var count int
	if err := sqlx.GetContext(ctx, r.q, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LoanRepository) getOne(ctx context.Context, ds *goqu.SelectDataset) (*model.Loan, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	loan := &model.Loan{}
	if err := sqlx.GetContext(ctx, r.q, loan, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}
