package services

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/shelftalk/apiserver/internal/storage"
	"github.com/shelftalk/apiserver/internal/store"
	"github.com/shelftalk/apiserver/types"
)

// BookRepository defines persistence operations for books.
type BookRepository interface {
	ListAll(ctx context.Context) ([]types.Book, error)
	Get(ctx context.Context, id int) (types.Book, error)
	ListByOwner(ctx context.Context, ownerID int) ([]types.Book, error)
	Create(ctx context.Context, book types.Book) (types.Book, error)
	Update(ctx context.Context, book types.Book) (types.Book, error)
	SetCoverKey(ctx context.Context, id int, coverKey string) error
	Delete(ctx context.Context, id int) error
}

// BookPatch is a partial update for a book. Nil fields are left
// untouched.
type BookPatch struct {
	Title       *string
	Author      *string
	Description *string
	Genre       *string
	Year        *int
}

// BookService encapsulates book use-cases: the listing and detail
// aggregations, the owner-guarded write paths with cascading review
// cleanup, and cover image storage.
type BookService struct {
	books   BookRepository
	reviews ReviewRepository
	covers  *storage.Storage
	events  *ActivityPublisher
}

// NewBookService constructs a BookService. covers may be nil when no
// object-storage backend is configured; events may be nil when no
// broker is configured.
func NewBookService(books BookRepository, reviews ReviewRepository, covers *storage.Storage, events *ActivityPublisher) *BookService {
	return &BookService{
		books:   books,
		reviews: reviews,
		covers:  covers,
		events:  events,
	}
}

// Listing joins the book collection with the review collection to
// produce one page of summaries plus facet metadata.
func (s *BookService) Listing(ctx context.Context, q ListingQuery) (types.Listing, error) {
	books, err := s.books.ListAll(ctx)
	if err != nil {
		return types.Listing{}, err
	}
	reviews, err := s.reviews.ListAll(ctx)
	if err != nil {
		return types.Listing{}, err
	}
	return BuildListing(books, reviews, q), nil
}

// Detail returns the single-book view: the book with the owner's public
// fields, the rounded average rating, the review list newest first, and
// the rating histogram.
func (s *BookService) Detail(ctx context.Context, id int) (types.BookDetail, error) {
	book, err := s.books.Get(ctx, id)
	if err != nil {
		return types.BookDetail{}, err
	}
	reviews, err := s.reviews.ListByBook(ctx, id)
	if err != nil {
		return types.BookDetail{}, err
	}

	average, distribution := summarizeReviews(reviews)
	summary := summarize(book, ratingStats{})
	summary.AverageRating = average
	summary.ReviewCount = len(reviews)
	if reviews == nil {
		reviews = []types.Review{}
	}

	return types.BookDetail{
		Book:               summary,
		AverageRating:      average,
		Reviews:            reviews,
		RatingDistribution: distribution,
	}, nil
}

// Create persists a new book owned by the acting user.
func (s *BookService) Create(ctx context.Context, actorID int, book types.Book) (types.Book, error) {
	book.OwnerID = actorID
	created, err := s.books.Create(ctx, book)
	if err != nil {
		return types.Book{}, err
	}
	s.events.Publish(ctx, ActivityEvent{
		Type:    EventBookCreated,
		BookID:  created.ID,
		ActorID: actorID,
	})
	return created, nil
}

// Update applies a partial patch to a book. The existence check runs
// before the ownership check.
func (s *BookService) Update(ctx context.Context, actorID, id int, patch BookPatch) (types.Book, error) {
	book, err := s.books.Get(ctx, id)
	if err != nil {
		return types.Book{}, err
	}
	if err := Authorize(actorID, book.OwnerID); err != nil {
		return types.Book{}, err
	}

	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		book.Author = *patch.Author
	}
	if patch.Description != nil {
		book.Description = *patch.Description
	}
	if patch.Genre != nil {
		book.Genre = *patch.Genre
	}
	if patch.Year != nil {
		book.Year = *patch.Year
	}

	return s.books.Update(ctx, book)
}

// Delete removes a book and then explicitly removes every review
// referencing it. The review cleanup and cover removal are best-effort:
// a failure after the book row is gone is logged, not rolled back.
func (s *BookService) Delete(ctx context.Context, actorID, id int) error {
	book, err := s.books.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(actorID, book.OwnerID); err != nil {
		return err
	}

	if err := s.books.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.reviews.DeleteByBook(ctx, id); err != nil {
		log.Printf("cascade review cleanup for book %d failed: %v", id, err)
	}
	if s.covers != nil && book.CoverKey != "" {
		if err := s.covers.Delete(ctx, book.CoverKey); err != nil {
			log.Printf("cover cleanup for book %d failed: %v", id, err)
		}
	}

	s.events.Publish(ctx, ActivityEvent{
		Type:    EventBookDeleted,
		BookID:  id,
		ActorID: actorID,
	})
	return nil
}

// UploadCover stores a new cover image for a book owned by the acting
// user, replacing any previous one.
func (s *BookService) UploadCover(ctx context.Context, actorID, id int, r io.Reader, size int64, contentType string) error {
	book, err := s.books.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(actorID, book.OwnerID); err != nil {
		return err
	}
	if s.covers == nil {
		return ErrStorageDisabled
	}

	key := fmt.Sprintf("covers/%s", uuid.NewString())
	if err := s.covers.Put(ctx, key, r, size, contentType); err != nil {
		return err
	}
	if err := s.books.SetCoverKey(ctx, id, key); err != nil {
		return err
	}
	if book.CoverKey != "" {
		if err := s.covers.Delete(ctx, book.CoverKey); err != nil {
			log.Printf("stale cover removal for book %d failed: %v", id, err)
		}
	}
	return nil
}

// OpenCover opens a reader for a book's cover image.
func (s *BookService) OpenCover(ctx context.Context, id int) (io.ReadCloser, error) {
	book, err := s.books.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.CoverKey == "" {
		return nil, store.ErrNotFound
	}
	if s.covers == nil {
		return nil, ErrStorageDisabled
	}
	return s.covers.Get(ctx, book.CoverKey)
}
