package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shelftalk/apiserver/types"
)

// ReviewRepository handles persistence for reviews. There is no unique
// index on (book_id, author_id); the one-review-per-user rule lives in
// the review service.
type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) ListAll(ctx context.Context) ([]types.Review, error) {
	const query = `
		SELECT id, book_id, author_id, rating, review_text, created_at, updated_at
		FROM reviews
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows, false, false)
}

// ListByBook returns all reviews for a book, newest first, with the
// author's name attached.
func (r *ReviewRepository) ListByBook(ctx context.Context, bookID int) ([]types.Review, error) {
	const query = `
		SELECT v.id, v.book_id, v.author_id, v.rating, v.review_text,
			v.created_at, v.updated_at, u.name
		FROM reviews v
		JOIN users u ON u.id = v.author_id
		WHERE v.book_id = $1
		ORDER BY v.id DESC`
	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows, true, false)
}

// ListByAuthor returns all reviews written by a user, newest first,
// with the reviewed book's title attached.
func (r *ReviewRepository) ListByAuthor(ctx context.Context, authorID int) ([]types.Review, error) {
	const query = `
		SELECT v.id, v.book_id, v.author_id, v.rating, v.review_text,
			v.created_at, v.updated_at, b.title
		FROM reviews v
		JOIN books b ON b.id = v.book_id
		WHERE v.author_id = $1
		ORDER BY v.id DESC`
	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows, false, true)
}

func (r *ReviewRepository) Get(ctx context.Context, id int) (types.Review, error) {
	const query = `
		SELECT id, book_id, author_id, rating, review_text, created_at, updated_at
		FROM reviews
		WHERE id = $1`
	var review types.Review
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.BookID,
		&review.AuthorID,
		&review.Rating,
		&review.ReviewText,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Review{}, ErrNotFound
		}
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) GetByBookAndAuthor(ctx context.Context, bookID, authorID int) (types.Review, error) {
	const query = `
		SELECT id, book_id, author_id, rating, review_text, created_at, updated_at
		FROM reviews
		WHERE book_id = $1 AND author_id = $2`
	var review types.Review
	err := r.db.QueryRowContext(ctx, query, bookID, authorID).Scan(
		&review.ID,
		&review.BookID,
		&review.AuthorID,
		&review.Rating,
		&review.ReviewText,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Review{}, ErrNotFound
		}
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Create(ctx context.Context, review types.Review) (types.Review, error) {
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	const query = `
		INSERT INTO reviews (book_id, author_id, rating, review_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		review.BookID,
		review.AuthorID,
		review.Rating,
		review.ReviewText,
		review.CreatedAt,
		review.UpdatedAt,
	).Scan(&review.ID); err != nil {
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Update(ctx context.Context, review types.Review) (types.Review, error) {
	review.UpdatedAt = time.Now()

	const query = `
		UPDATE reviews
		SET rating = $1,
			review_text = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		review.Rating,
		review.ReviewText,
		review.UpdatedAt,
		review.ID,
	)
	if err != nil {
		return types.Review{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Review{}, err
	}
	if affected == 0 {
		return types.Review{}, ErrNotFound
	}
	return review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM reviews WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByBook removes every review referencing the given book. It is
// called by the book service after a book deletion; deleting zero rows
// is not an error.
func (r *ReviewRepository) DeleteByBook(ctx context.Context, bookID int) error {
	const query = `DELETE FROM reviews WHERE book_id = $1`
	_, err := r.db.ExecContext(ctx, query, bookID)
	return err
}

func scanReviews(rows *sql.Rows, withAuthor, withBook bool) ([]types.Review, error) {
	var reviews []types.Review
	for rows.Next() {
		var review types.Review
		dest := []any{
			&review.ID,
			&review.BookID,
			&review.AuthorID,
			&review.Rating,
			&review.ReviewText,
			&review.CreatedAt,
			&review.UpdatedAt,
		}
		if withAuthor {
			dest = append(dest, &review.AuthorName)
		}
		if withBook {
			dest = append(dest, &review.BookTitle)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}
