package types

import "time"

// Review represents a single user's star rating and text review of a
// book. A user may review a given book at most once; the review service
// enforces this at write time.
type Review struct {
	// ID is the unique identifier of the review.
	ID int `json:"id" db:"id"`

	// BookID references the reviewed book.
	BookID int `json:"book_id" db:"book_id"`

	// AuthorID references the user who wrote the review. Only the
	// author may update or delete it.
	AuthorID int `json:"author_id" db:"author_id"`

	// Rating is the star rating, an integer in the inclusive range 1-5.
	Rating int `json:"rating" db:"rating"`

	// ReviewText is the review body. It is required.
	ReviewText string `json:"review_text" db:"review_text"`

	// AuthorName and BookTitle are populated by queries that join the
	// author or the book; they are projection fields, not columns.
	AuthorName string `json:"author_name,omitempty" db:"-"`
	BookTitle  string `json:"book_title,omitempty" db:"-"`

	// CreatedAt is the timestamp at which the review was written.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent edit.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
