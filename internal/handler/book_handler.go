package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/service"
)

// BookHandler serves catalog endpoints.
type BookHandler struct {
	books  *service.BookService
	logger zerolog.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(books *service.BookService, logger zerolog.Logger) *BookHandler {
	return &BookHandler{
		books:  books,
		logger: logger.With().Str("handler", "book").Logger(),
	}
}

// RegisterRoutes mounts the catalog endpoints.
func (h *BookHandler) RegisterRoutes(r chi.Router) {
	r.Route("/books", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

type createBookRequest struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	Genre           string `json:"genre"`
	Publisher       string `json:"publisher,omitempty"`
	Description     string `json:"description,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	TotalCopies     int    `json:"total_copies"`
}

func (h *BookHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	book, err := h.books.Create(r.Context(), service.CreateBookInput{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Genre:           req.Genre,
		Publisher:       req.Publisher,
		Description:     req.Description,
		PublicationDate: req.PublicationDate,
		TotalCopies:     req.TotalCopies,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusCreated, "book added to catalog", book)
}

func (h *BookHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	book, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, book)
}

func (h *BookHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pageParams(r)
	q := r.URL.Query()
	available, _ := strconv.ParseBool(q.Get("available"))

	out, err := h.books.List(r.Context(), service.ListBooksInput{
		Genre:         q.Get("genre"),
		Author:        q.Get("author"),
		Search:        q.Get("search"),
		AvailableOnly: available,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writePage(w, len(out.Books), out.TotalCount, page, limit, out.Books)
}

type updateBookRequest struct {
	Title           *string `json:"title,omitempty"`
	Author          *string `json:"author,omitempty"`
	ISBN            *string `json:"isbn,omitempty"`
	Genre           *string `json:"genre,omitempty"`
	Publisher       *string `json:"publisher,omitempty"`
	Description     *string `json:"description,omitempty"`
	PublicationDate *string `json:"publication_date,omitempty"`
	TotalCopies     *int    `json:"total_copies,omitempty"`
}

func (h *BookHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req updateBookRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	book, err := h.books.Update(r.Context(), service.UpdateBookInput{
		ID:              id,
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Genre:           req.Genre,
		Publisher:       req.Publisher,
		Description:     req.Description,
		PublicationDate: req.PublicationDate,
		TotalCopies:     req.TotalCopies,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusOK, "book updated", book)
}

func (h *BookHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.books.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusOK, "book removed from catalog", nil)
}
