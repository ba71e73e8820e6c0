package handler

import (
	"context"
	"net/http"

	"github.com/library/library-go/internal/middleware"
	"github.com/library/library-go/internal/model"
	"github.com/library/library-go/internal/service"
)

// LoanHandler handles HTTP requests for borrowing and returning books.
type LoanHandler struct {
	service *service.LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(svc *service.LoanService) *LoanHandler {
	return &LoanHandler{service: svc}
}

// HandleCreate handles POST /api/v1/loans requests.
func (h *LoanHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.CreateLoanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), user.ID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, loan.ToResponse())
}

// HandleReturn handles POST /api/v1/loans/{loan_id}/return requests.
func (h *LoanHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	id, ok := pathID(w, r, "loan_id")
	if !ok {
		return
	}

	loan, err := h.service.ReturnLoan(r.Context(), id, user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loan.ToResponse())
}

// HandleList handles GET /api/v1/loans requests.
func (h *LoanHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListLoansForUser)
}

// HandleListActive handles GET /api/v1/loans/active requests.
func (h *LoanHandler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListActiveLoansForUser)
}

// HandleHistory handles GET /api/v1/loans/history requests.
func (h *LoanHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListLoanHistoryForUser)
}

func (h *LoanHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int64) ([]model.Loan, error)) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	loans, err := fetch(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.LoansToResponse(loans))
}
