package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shelftalk/apiserver/types"
)

// BookRepository handles persistence for books. Read queries join the
// owning user so callers can attach the owner's public fields without a
// second round trip. Deleting a book does not touch its reviews; the
// book service performs that cleanup explicitly.
type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) ListAll(ctx context.Context) ([]types.Book, error) {
	const query = `
		SELECT b.id, b.title, b.author, b.description, b.genre, b.year,
			b.owner_id, b.cover_key, b.created_at, b.updated_at, u.name
		FROM books b
		JOIN users u ON u.id = b.owner_id
		ORDER BY b.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []types.Book
	for rows.Next() {
		var book types.Book
		if err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Author,
			&book.Description,
			&book.Genre,
			&book.Year,
			&book.OwnerID,
			&book.CoverKey,
			&book.CreatedAt,
			&book.UpdatedAt,
			&book.OwnerName,
		); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *BookRepository) Get(ctx context.Context, id int) (types.Book, error) {
	const query = `
		SELECT b.id, b.title, b.author, b.description, b.genre, b.year,
			b.owner_id, b.cover_key, b.created_at, b.updated_at, u.name, u.email
		FROM books b
		JOIN users u ON u.id = b.owner_id
		WHERE b.id = $1`
	var book types.Book
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Description,
		&book.Genre,
		&book.Year,
		&book.OwnerID,
		&book.CoverKey,
		&book.CreatedAt,
		&book.UpdatedAt,
		&book.OwnerName,
		&book.OwnerEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Book{}, ErrNotFound
		}
		return types.Book{}, err
	}
	return book, nil
}

func (r *BookRepository) ListByOwner(ctx context.Context, ownerID int) ([]types.Book, error) {
	const query = `
		SELECT id, title, author, description, genre, year,
			owner_id, cover_key, created_at, updated_at
		FROM books
		WHERE owner_id = $1
		ORDER BY title`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []types.Book
	for rows.Next() {
		var book types.Book
		if err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Author,
			&book.Description,
			&book.Genre,
			&book.Year,
			&book.OwnerID,
			&book.CoverKey,
			&book.CreatedAt,
			&book.UpdatedAt,
		); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *BookRepository) Create(ctx context.Context, book types.Book) (types.Book, error) {
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now

	const query = `
		INSERT INTO books (title, author, description, genre, year, owner_id, cover_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		book.Title,
		book.Author,
		book.Description,
		book.Genre,
		book.Year,
		book.OwnerID,
		book.CoverKey,
		book.CreatedAt,
		book.UpdatedAt,
	).Scan(&book.ID); err != nil {
		return types.Book{}, err
	}
	return book, nil
}

func (r *BookRepository) Update(ctx context.Context, book types.Book) (types.Book, error) {
	book.UpdatedAt = time.Now()

	const query = `
		UPDATE books
		SET title = $1,
			author = $2,
			description = $3,
			genre = $4,
			year = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		book.Title,
		book.Author,
		book.Description,
		book.Genre,
		book.Year,
		book.UpdatedAt,
		book.ID,
	)
	if err != nil {
		return types.Book{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Book{}, err
	}
	if affected == 0 {
		return types.Book{}, ErrNotFound
	}
	return book, nil
}

func (r *BookRepository) SetCoverKey(ctx context.Context, id int, coverKey string) error {
	const query = `
		UPDATE books
		SET cover_key = $1, updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, coverKey, time.Now(), id)
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

func (r *BookRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM books WHERE id = $1`
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
