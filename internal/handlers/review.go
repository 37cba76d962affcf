package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shelftalk/apiserver/internal/services"
	"github.com/shelftalk/apiserver/internal/store"
)

// ReviewHandler provides HTTP handlers for reviews. All review routes
// require authentication.
type ReviewHandler struct {
	reviewService *services.ReviewService
}

// NewReviewHandler constructs a handler with the provided service.
func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ReviewRouter registers review routes on the given router.
func ReviewRouter(
	r chi.Router,
	reviewService *services.ReviewService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewReviewHandler(reviewService)

	r.Use(authMiddleware)
	r.Post("/", handler.AddReview)
	r.Route("/{reviewID}", func(r chi.Router) {
		r.Put("/", handler.UpdateReview)
		r.Delete("/", handler.DeleteReview)
	})
}

func (h *ReviewHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	actorID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.ReviewText = strings.TrimSpace(req.ReviewText)
	if req.BookID < 1 {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if req.ReviewText == "" {
		writeError(w, http.StatusBadRequest, "review text is required")
		return
	}

	created, err := h.reviewService.Add(r.Context(), actorID, req.BookID, req.Rating, req.ReviewText)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "book not found")
		case errors.Is(err, services.ErrDuplicateReview):
			writeError(w, http.StatusConflict, "you have already reviewed this book")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create review")
		}
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	actorID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseReviewID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}

	var req UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if req.ReviewText != nil && strings.TrimSpace(*req.ReviewText) == "" {
		writeError(w, http.StatusBadRequest, "review text must not be empty")
		return
	}

	updated, err := h.reviewService.Update(r.Context(), actorID, id, services.ReviewPatch{
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		writeReviewMutationError(w, err, "failed to update review")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	actorID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseReviewID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}

	if err := h.reviewService.Delete(r.Context(), actorID, id); err != nil {
		writeReviewMutationError(w, err, "failed to delete review")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddReviewRequest is the JSON payload for creating a review.
type AddReviewRequest struct {
	BookID     int    `json:"book_id"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// UpdateReviewRequest is the JSON payload for a partial review update;
// rating and text are independently optional.
type UpdateReviewRequest struct {
	Rating     *int    `json:"rating"`
	ReviewText *string `json:"review_text"`
}

func parseReviewID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "reviewID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid review id")
	}
	return id, nil
}

func writeReviewMutationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "review not found")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "not the author of this review")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
