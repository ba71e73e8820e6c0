package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/library/library-go/internal/model"
)

var userColumns = []interface{}{"id", "name", "email", "phone", "password_hash", "is_admin", "created_at"}

// UserRepository handles user persistence operations.
type UserRepository struct {
	q  sqlx.ExtContext
	qb goqu.DialectWrapper
}

// Create inserts a new user and refreshes it with the server-assigned fields.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query, args, err := r.qb.Insert("users").Rows(goqu.Record{
		"name":          user.Name,
		"email":         user.Email,
		"phone":         user.Phone,
		"password_hash": user.PasswordHash,
		"is_admin":      user.IsAdmin,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*user = *created
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, goqu.C("email").Eq(email))
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, goqu.C("id").Eq(id))
}

// SetAdmin grants or revokes the admin flag of the user with the given email.
func (r *UserRepository) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	if _, err := r.GetByEmail(ctx, email); err != nil {
		return err
	}

	query, args, err := r.qb.Update("users").
		Set(goqu.Record{"is_admin": isAdmin}).
		Where(goqu.C("email").Eq(email)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query, args...)
	return err
}

func (r *UserRepository) getOne(ctx context.Context, where exp.Expression) (*model.User, error) {
	query, args, err := r.qb.From("users").Select(userColumns...).Where(where).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	user := &model.User{}
	if err := sqlx.GetContext(ctx, r.q, user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}
