package services

import "errors"

var (
	// ErrForbidden is returned when an authenticated user tries to
	// mutate a book or review they do not own. Because services check
	// existence before ownership, receiving it implies the resource
	// exists.
	ErrForbidden = errors.New("not the owner")

	// ErrDuplicateReview is returned when a user tries to add a second
	// review for the same book.
	ErrDuplicateReview = errors.New("book already reviewed by this user")

	// ErrStorageDisabled is returned from cover operations when no
	// object-storage backend is configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
)
