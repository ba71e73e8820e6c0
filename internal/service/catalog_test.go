package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/library/library-go/internal/model"
)

func TestCreateBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book, err := f.catalog.CreateBook(ctx, model.CreateBookRequest{
		Title:           "  Dune ",
		Author:          ptr("Frank Herbert"),
		PublicationDate: ptr("1965-08-01"),
		Genre:           ptr(""),
	})
	require.NoError(t, err)

	assert.NotZero(t, book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.True(t, book.Available)
	assert.Nil(t, book.Genre)
	require.NotNil(t, book.PublicationDate)
	assert.Equal(t, "1965-08-01", book.PublicationDate.Format(model.DateLayout))
}

func TestCreateBook_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  model.CreateBookRequest
	}{
		{"missing title", model.CreateBookRequest{}},
		{"blank title", model.CreateBookRequest{Title: "   "}},
		{"bad date", model.CreateBookRequest{Title: "Dune", PublicationDate: ptr("01/08/1965")}},
		{"genre too long", model.CreateBookRequest{Title: "Dune", Genre: ptr(string(make([]byte, 51)))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.CreateBook(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestGetBook(t *testing.T) {
	f := newFixture(t)
	dune := f.book(t, "Dune")

	got, err := f.catalog.GetBook(context.Background(), dune.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	_, err = f.catalog.GetBook(context.Background(), dune.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		f.book(t, fmt.Sprintf("Book %02d", i))
	}

	page, err := f.catalog.ListBooks(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, DefaultPageSize)

	page, err = f.catalog.ListBooks(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Book 10", page[0].Title)

	page, err = f.catalog.ListBooks(ctx, 1000, 0)
	require.NoError(t, err)
	assert.Len(t, page, 12)

	_, err = f.catalog.ListBooks(ctx, -1, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dune, err := f.catalog.CreateBook(ctx, model.CreateBookRequest{Title: "Dune", Author: ptr("Frank Herbert")})
	require.NoError(t, err)

	updated, err := f.catalog.UpdateBook(ctx, dune.ID, model.UpdateBookRequest{
		Title:           ptr(""),
		Author:          nil,
		Genre:           ptr("Sci-Fi"),
		PublicationDate: ptr("1965-08-01"),
		Available:       ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune", updated.Title)
	assert.Equal(t, "Frank Herbert", *updated.Author)
	assert.Equal(t, "Sci-Fi", *updated.Genre)
	assert.False(t, updated.Available)

	unchanged, err := f.catalog.UpdateBook(ctx, dune.ID, model.UpdateBookRequest{})
	require.NoError(t, err)
	assert.Equal(t, updated, unchanged)

	_, err = f.catalog.UpdateBook(ctx, dune.ID+1, model.UpdateBookRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.catalog.UpdateBook(ctx, dune.ID, model.UpdateBookRequest{PublicationDate: ptr("yesterday")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteBook_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")
	dune := f.book(t, "Dune")

	err := f.catalog.DeleteBook(ctx, alice, dune.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// A caller struct claiming admin is not enough; the stored record decides.
	forged := *alice
	forged.IsAdmin = true
	err = f.catalog.DeleteBook(ctx, &forged, dune.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, f.catalog.DeleteBook(ctx, nil, dune.ID), ErrUnauthorized)

	_, err = f.catalog.GetBook(ctx, dune.ID)
	assert.NoError(t, err)
}

func TestDeleteBook_Admin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	dune := f.book(t, "Dune")

	require.NoError(t, f.catalog.DeleteBook(ctx, admin, dune.ID))

	_, err := f.catalog.GetBook(ctx, dune.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.catalog.DeleteBook(ctx, admin, dune.ID), ErrNotFound)
}

func TestDeleteBook_WithLoans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	alice := f.register(t, "Alice", "alice@example.com")
	dune := f.book(t, "Dune")

	loan, err := f.loans.CreateLoan(ctx, alice.ID, model.CreateLoanRequest{BookID: dune.ID})
	require.NoError(t, err)

	err = f.catalog.DeleteBook(ctx, admin, dune.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.loans.ReturnLoan(ctx, loan.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteBook(ctx, admin, dune.ID))

	history, err := f.loans.ListLoanHistoryForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSearchBooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateBook(ctx, model.CreateBookRequest{Title: "Dune", Author: ptr("Frank Herbert"), Genre: ptr("Sci-Fi")})
	require.NoError(t, err)
	_, err = f.catalog.CreateBook(ctx, model.CreateBookRequest{Title: "Emma", Author: ptr("Jane Austen"), Genre: ptr("Romance")})
	require.NoError(t, err)

	books, err := f.catalog.SearchBooks(ctx, model.BookSearch{Title: "dun"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	books, err = f.catalog.SearchBooks(ctx, model.BookSearch{Author: "AUSTEN", Genre: "sci"})
	require.NoError(t, err)
	assert.Empty(t, books)

	books, err = f.catalog.SearchBooks(ctx, model.BookSearch{Title: "  "})
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate(ptr("2024-02-29"))
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))

	d, err = parseDate(ptr(""))
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = parseDate(ptr("2023-02-29"))
	assert.ErrorIs(t, err, ErrValidation)
}
