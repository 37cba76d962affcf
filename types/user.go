package types

import "time"

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is unique across accounts
	// and doubles as the login identifier.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserRef is the public projection of a user attached to books and
// reviews. Email is only populated on the book detail view.
type UserRef struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Profile is the current-user view: the account plus everything the
// user has contributed to the catalog.
type Profile struct {
	// User is the account itself, without the password hash.
	User User `json:"user"`

	// Books are the books owned by the user, ordered by title.
	Books []Book `json:"books"`

	// Reviews are the reviews authored by the user, newest first,
	// with the reviewed book's title attached.
	Reviews []Review `json:"reviews"`
}
