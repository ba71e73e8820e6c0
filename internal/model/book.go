package model

import "time"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Book represents a catalog entry in the database.
type Book struct {
	ID              int64      `db:"id"`
	Title           string     `db:"title"`
	Author          *string    `db:"author"`
	PublicationDate *time.Time `db:"publication_date"`
	Genre           *string    `db:"genre"`
	Available       bool       `db:"available"`
}

// CreateBookRequest represents a request to add a book to the catalog.
type CreateBookRequest struct {
	Title           string  `json:"title"`
	Author          *string `json:"author"`
	PublicationDate *string `json:"publication_date"` // YYYY-MM-DD
	Genre           *string `json:"genre"`
}

// UpdateBookRequest carries a partial update. Nil fields are left untouched.
type UpdateBookRequest struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	PublicationDate *string `json:"publication_date"`
	Genre           *string `json:"genre"`
	Available       *bool   `json:"available"`
}

// BookChanges is the validated set of columns to write on update.
type BookChanges struct {
	Title           *string
	Author          *string
	PublicationDate *time.Time
	Genre           *string
	Available       *bool
}

// Empty reports whether there is nothing to write.
func (c BookChanges) Empty() bool {
	return c.Title == nil && c.Author == nil && c.PublicationDate == nil && c.Genre == nil && c.Available == nil
}

// BookSearch holds the optional case-insensitive substring filters.
type BookSearch struct {
	Title  string
	Author string
	Genre  string
}

// BookResponse represents a book in API responses.
type BookResponse struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Author          *string `json:"author"`
	PublicationDate *string `json:"publication_date"`
	Genre           *string `json:"genre"`
	Available       bool    `json:"available"`
}

// ToResponse converts b for the wire.
func (b Book) ToResponse() BookResponse {
	resp := BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		Available: b.Available,
	}
	if b.PublicationDate != nil {
		d := b.PublicationDate.Format(DateLayout)
		resp.PublicationDate = &d
	}
	return resp
}

// BooksToResponse converts a slice of books, never returning nil.
func BooksToResponse(books []Book) []BookResponse {
	result := make([]BookResponse, len(books))
	for i, b := range books {
		result[i] = b.ToResponse()
	}
	return result
}
