package model

import "time"

// Loan records a book lent to a user. A nil ReturnDate means the book is still out.
type Loan struct {
	ID         int64      `db:"id"`
	UserID     int64      `db:"user_id"`
	BookID     int64      `db:"book_id"`
	LoanDate   time.Time  `db:"loan_date"`
	ReturnDate *time.Time `db:"return_date"`
}

// Active reports whether the loan has not been returned yet.
func (l Loan) Active() bool {
	return l.ReturnDate == nil
}

// CreateLoanRequest represents a borrow request. LoanDate defaults to now.
type CreateLoanRequest struct {
	BookID   int64      `json:"book_id"`
	LoanDate *time.Time `json:"loan_date"`
}

// LoanFilter narrows a loan listing.
type LoanFilter struct {
	UserID      int64
	ActiveOnly  bool
	NewestFirst bool
}

// LoanResponse represents a loan in API responses.
type LoanResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	BookID     int64     `json:"book_id"`
	LoanDate   time.Time `json:"loan_date"`
	ReturnDate *string   `json:"return_date"`
}

// ToResponse converts l for the wire.
func (l Loan) ToResponse() LoanResponse {
	resp := LoanResponse{
		ID:       l.ID,
		UserID:   l.UserID,
		BookID:   l.BookID,
		LoanDate: l.LoanDate,
	}
	if l.ReturnDate != nil {
		d := l.ReturnDate.Format(DateLayout)
		resp.ReturnDate = &d
	}
	return resp
}

// LoansToResponse converts a slice of loans, never returning nil.
func LoansToResponse(loans []Loan) []LoanResponse {
	result := make([]LoanResponse, len(loans))
	for i, l := range loans {
		result[i] = l.ToResponse()
	}
	return result
}
