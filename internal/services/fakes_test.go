package services

import (
	"context"
	"sort"
	"time"

	"github.com/shelftalk/apiserver/internal/store"
	"github.com/shelftalk/apiserver/types"
)

// fakeBookRepo is an in-memory BookRepository for service tests.
type fakeBookRepo struct {
	nextID int
	books  map[int]types.Book

	failListAll bool
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{nextID: 1, books: map[int]types.Book{}}
}

func (r *fakeBookRepo) ListAll(ctx context.Context) ([]types.Book, error) {
	if r.failListAll {
		return nil, errBoom
	}
	out := make([]types.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBookRepo) Get(ctx context.Context, id int) (types.Book, error) {
	book, ok := r.books[id]
	if !ok {
		return types.Book{}, store.ErrNotFound
	}
	return book, nil
}

func (r *fakeBookRepo) ListByOwner(ctx context.Context, ownerID int) ([]types.Book, error) {
	out := make([]types.Book, 0)
	for _, b := range r.books {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *fakeBookRepo) Create(ctx context.Context, book types.Book) (types.Book, error) {
	book.ID = r.nextID
	r.nextID++
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now
	r.books[book.ID] = book
	return book, nil
}

func (r *fakeBookRepo) Update(ctx context.Context, book types.Book) (types.Book, error) {
	if _, ok := r.books[book.ID]; !ok {
		return types.Book{}, store.ErrNotFound
	}
	book.UpdatedAt = time.Now()
	r.books[book.ID] = book
	return book, nil
}

func (r *fakeBookRepo) SetCoverKey(ctx context.Context, id int, coverKey string) error {
	book, ok := r.books[id]
	if !ok {
		return store.ErrNotFound
	}
	book.CoverKey = coverKey
	r.books[id] = book
	return nil
}

func (r *fakeBookRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.books[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

// fakeReviewRepo is an in-memory ReviewRepository for service tests.
type fakeReviewRepo struct {
	nextID  int
	reviews map[int]types.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{nextID: 1, reviews: map[int]types.Review{}}
}

func (r *fakeReviewRepo) ListAll(ctx context.Context) ([]types.Review, error) {
	out := make([]types.Review, 0, len(r.reviews))
	for _, v := range r.reviews {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeReviewRepo) ListByBook(ctx context.Context, bookID int) ([]types.Review, error) {
	out := make([]types.Review, 0)
	for _, v := range r.reviews {
		if v.BookID == bookID {
			out = append(out, v)
		}
	}
	// Newest first, matching the store ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeReviewRepo) ListByAuthor(ctx context.Context, authorID int) ([]types.Review, error) {
	out := make([]types.Review, 0)
	for _, v := range r.reviews {
		if v.AuthorID == authorID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeReviewRepo) Get(ctx context.Context, id int) (types.Review, error) {
	review, ok := r.reviews[id]
	if !ok {
		return types.Review{}, store.ErrNotFound
	}
	return review, nil
}

func (r *fakeReviewRepo) GetByBookAndAuthor(ctx context.Context, bookID, authorID int) (types.Review, error) {
	for _, v := range r.reviews {
		if v.BookID == bookID && v.AuthorID == authorID {
			return v, nil
		}
	}
	return types.Review{}, store.ErrNotFound
}

func (r *fakeReviewRepo) Create(ctx context.Context, review types.Review) (types.Review, error) {
	review.ID = r.nextID
	r.nextID++
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now
	r.reviews[review.ID] = review
	return review, nil
}

func (r *fakeReviewRepo) Update(ctx context.Context, review types.Review) (types.Review, error) {
	if _, ok := r.reviews[review.ID]; !ok {
		return types.Review{}, store.ErrNotFound
	}
	review.UpdatedAt = time.Now()
	r.reviews[review.ID] = review
	return review, nil
}

func (r *fakeReviewRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.reviews, id)
	return nil
}

func (r *fakeReviewRepo) DeleteByBook(ctx context.Context, bookID int) error {
	for id, v := range r.reviews {
		if v.BookID == bookID {
			delete(r.reviews, id)
		}
	}
	return nil
}
