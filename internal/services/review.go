package services

import (
	"context"
	"errors"

	"github.com/shelftalk/apiserver/internal/store"
	"github.com/shelftalk/apiserver/types"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	ListAll(ctx context.Context) ([]types.Review, error)
	ListByBook(ctx context.Context, bookID int) ([]types.Review, error)
	ListByAuthor(ctx context.Context, authorID int) ([]types.Review, error)
	Get(ctx context.Context, id int) (types.Review, error)
	GetByBookAndAuthor(ctx context.Context, bookID, authorID int) (types.Review, error)
	Create(ctx context.Context, review types.Review) (types.Review, error)
	Update(ctx context.Context, review types.Review) (types.Review, error)
	Delete(ctx context.Context, id int) error
	DeleteByBook(ctx context.Context, bookID int) error
}

// ReviewPatch is a partial update for a review. Rating and text are
// independently optional.
type ReviewPatch struct {
	Rating     *int
	ReviewText *string
}

// ReviewService encapsulates review use-cases, including the
// one-review-per-user-per-book rule and author-only mutation.
type ReviewService struct {
	reviews ReviewRepository
	books   BookRepository
	events  *ActivityPublisher
}

func NewReviewService(reviews ReviewRepository, books BookRepository, events *ActivityPublisher) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		books:   books,
		events:  events,
	}
}

// Add creates a review for an existing book the acting user has not
// reviewed yet.
func (s *ReviewService) Add(ctx context.Context, actorID, bookID, rating int, text string) (types.Review, error) {
	if _, err := s.books.Get(ctx, bookID); err != nil {
		return types.Review{}, err
	}

	_, err := s.reviews.GetByBookAndAuthor(ctx, bookID, actorID)
	if err == nil {
		return types.Review{}, ErrDuplicateReview
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.Review{}, err
	}

	created, err := s.reviews.Create(ctx, types.Review{
		BookID:     bookID,
		AuthorID:   actorID,
		Rating:     rating,
		ReviewText: text,
	})
	if err != nil {
		return types.Review{}, err
	}

	s.events.Publish(ctx, ActivityEvent{
		Type:     EventReviewCreated,
		BookID:   bookID,
		ReviewID: created.ID,
		ActorID:  actorID,
	})
	return created, nil
}

// Update applies a partial patch to a review. The existence check runs
// before the authorship check.
func (s *ReviewService) Update(ctx context.Context, actorID, id int, patch ReviewPatch) (types.Review, error) {
	review, err := s.reviews.Get(ctx, id)
	if err != nil {
		return types.Review{}, err
	}
	if err := Authorize(actorID, review.AuthorID); err != nil {
		return types.Review{}, err
	}

	if patch.Rating != nil {
		review.Rating = *patch.Rating
	}
	if patch.ReviewText != nil {
		review.ReviewText = *patch.ReviewText
	}

	return s.reviews.Update(ctx, review)
}

// Delete removes a review authored by the acting user.
func (s *ReviewService) Delete(ctx context.Context, actorID, id int) error {
	review, err := s.reviews.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(actorID, review.AuthorID); err != nil {
		return err
	}
	return s.reviews.Delete(ctx, id)
}
