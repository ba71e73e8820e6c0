package handler

import (
	"net/http"
	"strconv"

	"github.com/library/library-go/internal/middleware"
	"github.com/library/library-go/internal/model"
	"github.com/library/library-go/internal/service"
)

// BookHandler handles HTTP requests for the book catalog.
type BookHandler struct {
	service *service.CatalogService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(svc *service.CatalogService) *BookHandler {
	return &BookHandler{service: svc}
}

// HandleList handles GET /api/v1/books requests.
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	books, err := h.service.ListBooks(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.BooksToResponse(books))
}

// HandleSearch handles GET /api/v1/books/search requests.
func (h *BookHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	books, err := h.service.SearchBooks(r.Context(), model.BookSearch{
		Title:  q.Get("title"),
		Author: q.Get("author"),
		Genre:  q.Get("genre"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.BooksToResponse(books))
}

// HandleGet handles GET /api/v1/books/{book_id} requests.
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "book_id")
	if !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, book.ToResponse())
}

// HandleCreate handles POST /api/v1/books requests.
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.service.CreateBook(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, book.ToResponse())
}

// HandleUpdate handles PUT /api/v1/books/{book_id} requests.
func (h *BookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "book_id")
	if !ok {
		return
	}

	var req model.UpdateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, book.ToResponse())
}

// HandleDelete handles DELETE /api/v1/books/{book_id} requests.
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	id, ok := pathID(w, r, "book_id")
	if !ok {
		return
	}

	if err := h.service.DeleteBook(r.Context(), user, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// queryInt reads an optional non-negative integer query parameter; absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid "+name))
		return 0, false
	}
	return v, true
}
