package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shelftalk/apiserver/internal/services"
	"github.com/shelftalk/apiserver/internal/store"
	"github.com/shelftalk/apiserver/types"
)

const (
	maxCoverMemory = 8 << 20
	maxCoverBytes  = 8 << 20
	formFieldCover = "cover"
	sniffLen       = 512
)

// BookHandler provides HTTP handlers for books.
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler constructs a handler with the provided service.
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// BookRouter registers book routes on the given router.
func BookRouter(
	r chi.Router,
	bookService *services.BookService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewBookHandler(bookService)

	r.Get("/", handler.ListBooks)
	r.With(authMiddleware).Post("/", handler.CreateBook)
	r.Route("/{bookID}", func(r chi.Router) {
		r.Get("/", handler.GetBook)
		r.With(authMiddleware).Put("/", handler.UpdateBook)
		r.With(authMiddleware).Delete("/", handler.DeleteBook)
		r.Get("/cover", handler.GetCover)
		r.With(authMiddleware).Put("/cover", handler.UploadCover)
	})
}

// ListBooks serves the paginated, searchable, sortable catalog listing.
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// An invalid or missing page falls back to page 1.
	page := 1
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}

	listing, err := h.bookService.Listing(r.Context(), services.ListingQuery{
		Page:   page,
		Search: query.Get("search"),
		Genre:  query.Get("genre"),
		Sort:   query.Get("sort"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// GetBook serves the book detail view with review aggregates.
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := parseBookID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	detail, err := h.bookService.Detail(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch book")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	actorID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, err := parseBookUpsert(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.bookService.Create(r.Context(), actorID, types.Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Genre:       req.Genre,
		Year:        req.Year,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create book")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	actorID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseBookID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	patch, err := parseBookPatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.bookService.Update(r.Context(), actorID, id, patch)
	if err != nil {
		writeBookMutationError(w, err, "failed to update book")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	actorID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseBookID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	if err := h.bookService.Delete(r.Context(), actorID, id); err != nil {
		writeBookMutationError(w, err, "failed to delete book")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadCover stores a new cover image for a book owned by the caller.
func (h *BookHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	actorID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseBookID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	if err := r.ParseMultipartForm(maxCoverMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldCover)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cover file is required")
		return
	}
	defer file.Close()

	if header.Size > maxCoverBytes {
		writeError(w, http.StatusBadRequest, "cover file too large")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "cover must be an image")
		return
	}

	if err := h.bookService.UploadCover(r.Context(), actorID, id, file, header.Size, contentType); err != nil {
		if errors.Is(err, services.ErrStorageDisabled) {
			writeError(w, http.StatusServiceUnavailable, "cover storage is not available")
			return
		}
		writeBookMutationError(w, err, "failed to store cover")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCover streams a book's cover image.
func (h *BookHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	id, err := parseBookID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	cover, err := h.bookService.OpenCover(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cover not found")
			return
		}
		if errors.Is(err, services.ErrStorageDisabled) {
			writeError(w, http.StatusServiceUnavailable, "cover storage is not available")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch cover")
		return
	}
	defer cover.Close()

	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(cover, head)
	w.Header().Set("Content-Type", http.DetectContentType(head[:n]))
	_, _ = w.Write(head[:n])
	_, _ = io.Copy(w, cover)
}

// BookUpsertRequest is the JSON payload for creating a book.
type BookUpsertRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	Year        int    `json:"year"`
}

// BookPatchRequest is the JSON payload for a partial book update; only
// provided fields are changed.
type BookPatchRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Description *string `json:"description"`
	Genre       *string `json:"genre"`
	Year        *int    `json:"year"`
}

func parseBookID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "bookID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid book id")
	}
	return id, nil
}

func parseBookUpsert(r *http.Request) (BookUpsertRequest, error) {
	var req BookUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return BookUpsertRequest{}, errors.New("invalid request")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Description = strings.TrimSpace(req.Description)
	req.Genre = strings.TrimSpace(req.Genre)

	if req.Title == "" {
		return BookUpsertRequest{}, errors.New("title is required")
	}
	if req.Author == "" {
		return BookUpsertRequest{}, errors.New("author is required")
	}
	if req.Description == "" {
		return BookUpsertRequest{}, errors.New("description is required")
	}
	return req, nil
}

func parseBookPatch(r *http.Request) (services.BookPatch, error) {
	var req BookPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.BookPatch{}, errors.New("invalid request")
	}

	// A field may be omitted, but a provided required field must not
	// be blank.
	for name, field := range map[string]*string{
		"title":       req.Title,
		"author":      req.Author,
		"description": req.Description,
	} {
		if field != nil && strings.TrimSpace(*field) == "" {
			return services.BookPatch{}, errors.New(name + " must not be empty")
		}
	}

	return services.BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Genre:       req.Genre,
		Year:        req.Year,
	}, nil
}

func writeBookMutationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "book not found")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "not the owner of this book")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
