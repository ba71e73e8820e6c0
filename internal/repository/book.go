package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/library/library-go/internal/model"
)

var bookColumns = []interface{}{"id", "title", "author", "publication_date", "genre", "available"}

// BookRepository handles catalog persistence operations.
type BookRepository struct {
	q        sqlx.ExtContext
	qb       goqu.DialectWrapper
	lockRows bool
}

// Create inserts a new book and sets the generated ID on it.
func (r *BookRepository) Create(ctx context.Context, book *model.Book) error {
	query, args, err := r.qb.Insert("books").Rows(goqu.Record{
		"title":            book.Title,
		"author":           book.Author,
		"publication_date": book.PublicationDate,
		"genre":            book.Genre,
		"available":        book.Available,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	book.ID = id
	return nil
}

// GetByID retrieves a book by its ID.
func (r *BookRepository) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves a book and locks its row until the surrounding
// transaction ends. Outside a transaction the lock is released immediately.
func (r *BookRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Book, error) {
	return r.get(ctx, id, true)
}

func (r *BookRepository) get(ctx context.Context, id int64, forUpdate bool) (*model.Book, error) {
	ds := r.qb.From("books").Select(bookColumns...).Where(goqu.C("id").Eq(id))
	if forUpdate && r.lockRows {
		ds = ds.ForUpdate(exp.Wait)
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	book := &model.Book{}
	if err := sqlx.GetContext(ctx, r.q, book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// List returns a page of books in ID order.
func (r *BookRepository) List(ctx context.Context, limit, offset uint) ([]model.Book, error) {
	ds := r.qb.From("books").Select(bookColumns...).Order(goqu.C("id").Asc()).Limit(limit).Offset(offset)
	return r.selectBooks(ctx, ds)
}

// Update writes only the columns present in changes.
func (r *BookRepository) Update(ctx context.Context, id int64, changes model.BookChanges) error {
	if changes.Empty() {
		return nil
	}

	record := goqu.Record{}
	if changes.Title != nil {
		record["title"] = *changes.Title
	}
	if changes.Author != nil {
		record["author"] = *changes.Author
	}
	if changes.PublicationDate != nil {
		record["publication_date"] = *changes.PublicationDate
	}
	if changes.Genre != nil {
		record["genre"] = *changes.Genre
	}
	if changes.Available != nil {
		record["available"] = *changes.Available
	}

	return r.update(ctx, id, record)
}

// SetAvailability sets the availability flag of a book.
func (r *BookRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	return r.update(ctx, id, goqu.Record{"available": available})
}

func (r *BookRepository) update(ctx context.Context, id int64, record goqu.Record) error {
	query, args, err := r.qb.Update("books").Set(record).Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	// MySQL reports zero affected rows when values are unchanged, so existence
	// is checked by the caller rather than through RowsAffected.
	_, err = r.q.ExecContext(ctx, query, args...)
	return err
}

// Delete removes a book. Loans referencing it are removed by the foreign key cascade.
func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.qb.Delete("books").Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
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
		return ErrBookNotFound
	}
	return nil
}

// Search returns books whose title, author and genre contain the given
// substrings, ignoring case. Empty filters are ignored.
func (r *BookRepository) Search(ctx context.Context, search model.BookSearch) ([]model.Book, error) {
	ds := r.qb.From("books").Select(bookColumns...).Order(goqu.C("id").Asc())

	filters := []struct{ column, term string }{
		{"title", search.Title},
		{"author", search.Author},
		{"genre", search.Genre},
	}
	for _, f := range filters {
		if f.term == "" {
			continue
		}
		ds = ds.Where(goqu.L("LOWER(?) LIKE LOWER(?) ESCAPE '!'", goqu.C(f.column), "%"+escapeLike(f.term)+"%"))
	}

	return r.selectBooks(ctx, ds)
}

// likeEscaper makes a search term match literally inside a LIKE pattern.
// '!' is used as the escape character since MySQL and SQLite disagree on
// backslashes in string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func (r *BookRepository) selectBooks(ctx context.Context, ds *goqu.SelectDataset) ([]model.Book, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	books := []model.Book{}
	if err := sqlx.SelectContext(ctx, r.q, &books, query, args...); err != nil {
		return nil, err
	}
	return books, nil
}
