package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/library/library-go/internal/model"
	"github.com/library/library-go/internal/repository"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	maxTitleLength  = 255
	maxAuthorLength = 100
	maxGenreLength  = 50
)

// CatalogService handles book catalog business logic.
type CatalogService struct {
	store repository.Store
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

// CreateBook adds a book to the catalog. New books start available.
func (s *CatalogService) CreateBook(ctx context.Context, req model.CreateBookRequest) (*model.Book, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationError("title", "is required")
	}
	if len(title) > maxTitleLength {
		return nil, validationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}

	book := &model.Book{Title: title, Available: true}
	var err error
	if book.Author, err = optionalText("author", req.Author, maxAuthorLength); err != nil {
		return nil, err
	}
	if book.Genre, err = optionalText("genre", req.Genre, maxGenreLength); err != nil {
		return nil, err
	}
	if book.PublicationDate, err = parseDate(req.PublicationDate); err != nil {
		return nil, err
	}

	if err := s.store.Books().Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	slog.Info("book created", "book_id", book.ID)
	return book, nil
}

// GetBook retrieves a book by ID.
func (s *CatalogService) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	book, err := s.store.Books().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// ListBooks returns a page of the catalog. A zero limit selects the default
// page size; limits above MaxPageSize are capped.
func (s *CatalogService) ListBooks(ctx context.Context, limit, offset int) ([]model.Book, error) {
	if limit < 0 || offset < 0 {
		return nil, validationError("limit and offset", "must not be negative")
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	return s.store.Books().List(ctx, uint(limit), uint(offset))
}

// UpdateBook applies a partial update. Nil and empty string fields are left
// untouched; Available is applied whenever it is present.
func (s *CatalogService) UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (*model.Book, error) {
	changes, err := bookChanges(req)
	if err != nil {
		return nil, err
	}

	var updated *model.Book
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Books().GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		if err := tx.Books().Update(ctx, id, changes); err != nil {
			return err
		}
		updated, err = tx.Books().GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("update book: %w", err)
	}

	slog.Info("book updated", "book_id", id)
	return updated, nil
}

func bookChanges(req model.UpdateBookRequest) (model.BookChanges, error) {
	var changes model.BookChanges
	var err error

	if req.Title != nil {
		if t := strings.TrimSpace(*req.Title); t != "" {
			if len(t) > maxTitleLength {
				return changes, validationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
			}
			changes.Title = &t
		}
	}
	if changes.Author, err = optionalText("author", req.Author, maxAuthorLength); err != nil {
		return changes, err
	}
	if changes.Genre, err = optionalText("genre", req.Genre, maxGenreLength); err != nil {
		return changes, err
	}
	if changes.PublicationDate, err = parseDate(req.PublicationDate); err != nil {
		return changes, err
	}
	changes.Available = req.Available

	return changes, nil
}

// DeleteBook removes a book. Only admins may delete, and never while the
// book is out on loan. Historical loans are removed with it.
func (s *CatalogService) DeleteBook(ctx context.Context, caller *model.User, id int64) error {
	if caller == nil {
		return ErrUnauthorized
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		current, err := tx.Users().GetByID(ctx, caller.ID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrAdminRequired
			}
			return err
		}
		if !current.IsAdmin {
			return ErrAdminRequired
		}

		if _, err := tx.Books().GetByIDForUpdate(ctx, id); err != nil {
			return err
		}

		active, err := tx.Loans().CountActiveForBook(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrBookOnLoan
		}

		return tx.Books().Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return ErrBookNotFound
		}
		if errors.Is(err, ErrForbidden) || errors.Is(err, ErrConflict) {
			return err
		}
		return fmt.Errorf("delete book: %w", err)
	}

	slog.Info("book deleted", "book_id", id, "by_user_id", caller.ID)
	return nil
}

// SearchBooks returns books matching every non-empty filter, ignoring case.
func (s *CatalogService) SearchBooks(ctx context.Context, search model.BookSearch) ([]model.Book, error) {
	search.Title = strings.TrimSpace(search.Title)
	search.Author = strings.TrimSpace(search.Author)
	search.Genre = strings.TrimSpace(search.Genre)

	return s.store.Books().Search(ctx, search)
}

// optionalText trims v and treats an empty result as absent.
func optionalText(field string, v *string, maxLen int) (*string, error) {
	if v == nil {
		return nil, nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil, nil
	}
	if len(t) > maxLen {
		return nil, validationError(field, fmt.Sprintf("must be at most %d characters", maxLen))
	}
	return &t, nil
}

// parseDate parses an optional YYYY-MM-DD date. Empty means absent.
func parseDate(v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	d, err := time.Parse(model.DateLayout, strings.TrimSpace(*v))
	if err != nil {
		return nil, validationError("publication_date", "must be a date in YYYY-MM-DD format")
	}
	return &d, nil
}
