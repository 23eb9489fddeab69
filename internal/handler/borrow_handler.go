package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/service"
)

// BorrowHandler serves the borrow lifecycle endpoints.
type BorrowHandler struct {
	borrows *service.BorrowService
	logger  zerolog.Logger
}

// NewBorrowHandler creates a new BorrowHandler.
func NewBorrowHandler(borrows *service.BorrowService, logger zerolog.Logger) *BorrowHandler {
	return &BorrowHandler{
		borrows: borrows,
		logger:  logger.With().Str("handler", "borrow").Logger(),
	}
}

// RegisterRoutes mounts the borrow endpoints.
func (h *BorrowHandler) RegisterRoutes(r chi.Router) {
	r.Route("/borrows", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleBorrow)
		r.Get("/my", h.handleMyBorrows)
		r.Get("/overdue", h.handleOverdue)
		r.Get("/eligibility/{userID}", h.handleEligibility)

		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Post("/{id}/return", h.handleReturn)
		r.Post("/{id}/renew", h.handleRenew)
	})
}

// recordIDParam parses the borrow record UUID from the URL.
func recordIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errInvalidID("id")
	}
	return id, nil
}

type borrowRequest struct {
	UserID int64  `json:"user_id,omitempty"`
	BookID int64  `json:"book_id"`
	Notes  string `json:"notes,omitempty"`
}

func (h *BorrowHandler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.BookID < 1 {
		writeError(w, h.logger, domain.Validationf("book_id is required"))
		return
	}

	rec, err := h.borrows.BorrowBook(r.Context(), service.BorrowBookInput{
		UserID: req.UserID,
		BookID: req.BookID,
		Notes:  req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusCreated, "book borrowed", rec)
}

func (h *BorrowHandler) handleReturn(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rec, err := h.borrows.ReturnBook(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusOK, "book returned", rec)
}

func (h *BorrowHandler) handleRenew(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rec, err := h.borrows.RenewBook(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusOK, "borrow renewed", rec)
}

func (h *BorrowHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rec, err := h.borrows.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

type updateBorrowRequest struct {
	DueDate *time.Time `json:"due_date,omitempty"`
	Fine    *float64   `json:"fine,omitempty"`
	Notes   *string    `json:"notes,omitempty"`
}

func (h *BorrowHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req updateBorrowRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	rec, err := h.borrows.UpdateBorrow(r.Context(), service.UpdateBorrowInput{
		ID:      id,
		DueDate: req.DueDate,
		Fine:    req.Fine,
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusOK, "borrow record updated", rec)
}

func (h *BorrowHandler) handleEligibility(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out, err := h.borrows.CanUserBorrow(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// listInput builds the common borrow list filter from query parameters.
func (h *BorrowHandler) listInput(r *http.Request) (service.ListBorrowsInput, int) {
	page, limit, offset := pageParams(r)
	q := r.URL.Query()

	userID, _ := strconv.ParseInt(q.Get("user_id"), 10, 64)
	bookID, _ := strconv.ParseInt(q.Get("book_id"), 10, 64)
	overdue, _ := strconv.ParseBool(q.Get("overdue"))

	return service.ListBorrowsInput{
		UserID:      userID,
		BookID:      bookID,
		Status:      domain.BorrowStatus(q.Get("status")),
		OverdueOnly: overdue,
		Limit:       limit,
		Offset:      offset,
	}, page
}

func (h *BorrowHandler) handleList(w http.ResponseWriter, r *http.Request) {
	input, page := h.listInput(r)

	out, err := h.borrows.List(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writePage(w, len(out.Records), out.TotalCount, page, input.Limit, out.Records)
}

func (h *BorrowHandler) handleMyBorrows(w http.ResponseWriter, r *http.Request) {
	input, page := h.listInput(r)

	out, err := h.borrows.MyBorrows(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writePage(w, len(out.Records), out.TotalCount, page, input.Limit, out.Records)
}

func (h *BorrowHandler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	input, page := h.listInput(r)

	out, err := h.borrows.OverdueBorrows(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writePage(w, len(out.Records), out.TotalCount, page, input.Limit, out.Records)
}
