package types

import "time"

// Book represents a catalog entry added by a user.
type Book struct {
	// ID is the unique identifier of the book.
	ID int `json:"id" db:"id"`

	// Title is the book's title.
	Title string `json:"title" db:"title"`

	// Author is the name of the book's author.
	Author string `json:"author" db:"author"`

	// Description is a free-form summary of the book.
	Description string `json:"description" db:"description"`

	// Genre is an optional genre label. An empty string means the
	// book is unlabelled and it is excluded from the genre facet.
	Genre string `json:"genre,omitempty" db:"genre"`

	// Year is the optional publication year. Zero means unknown.
	Year int `json:"year,omitempty" db:"year"`

	// OwnerID references the user who added the book. It is set at
	// creation and never reassigned; only the owner may mutate or
	// delete the book.
	OwnerID int `json:"owner_id" db:"owner_id"`

	// CoverKey is the object-storage key of the book's cover image,
	// empty when no cover has been uploaded.
	CoverKey string `json:"-" db:"cover_key"`

	// OwnerName and OwnerEmail are populated by queries that join the
	// owning user. They are projection fields, not columns of the
	// books table.
	OwnerName  string `json:"-" db:"-"`
	OwnerEmail string `json:"-" db:"-"`

	// CreatedAt is the timestamp at which the book was added.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the book.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BookSummary is the read projection served by the listing and detail
// endpoints: the book's public fields with the owner reference and the
// rating aggregates attached. The aggregates are always recomputed from
// live review data, never persisted.
type BookSummary struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description string  `json:"description"`
	Genre       string  `json:"genre,omitempty"`
	Year        int     `json:"year,omitempty"`
	Owner       UserRef `json:"owner"`

	// AverageRating is the mean of the book's review ratings, 0 when
	// the book has no reviews.
	AverageRating float64 `json:"average_rating"`

	// ReviewCount is the number of reviews for the book.
	ReviewCount int `json:"review_count"`
}

// Listing is a page of book summaries plus the facet metadata computed
// alongside it.
type Listing struct {
	Books       []BookSummary `json:"books"`
	CurrentPage int           `json:"current_page"`

	// TotalPages is ceil(TotalBooks / page size).
	TotalPages int `json:"total_pages"`

	// TotalBooks is the post-filter, pre-pagination match count.
	TotalBooks int `json:"total_books"`

	// Genres is the set of distinct genre values across all books,
	// unaffected by the current filters.
	Genres []string `json:"genres"`
}

// BookDetail is the single-book view with the full review list and the
// rating histogram.
type BookDetail struct {
	Book BookSummary `json:"book"`

	// AverageRating is rounded to two decimal places, 0 when the book
	// has no reviews.
	AverageRating float64 `json:"average_rating"`

	// Reviews are all reviews for the book, newest first, with author
	// names attached.
	Reviews []Review `json:"reviews"`

	// RatingDistribution holds one bucket per star value that has at
	// least one review, sorted by rating descending. Star values with
	// zero reviews are omitted.
	RatingDistribution []RatingBucket `json:"rating_distribution"`
}

// RatingBucket is one entry of a rating histogram.
type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}
