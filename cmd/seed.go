/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shelftalk/apiserver/config"
	"github.com/shelftalk/apiserver/internal/db"
	"github.com/shelftalk/apiserver/internal/store"
	"github.com/shelftalk/apiserver/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const seedPassword = "123456"

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Wipe the database and load demo users, books and reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		database, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect to database failed: %w", err)
		}
		defer database.Close()

		if err := seed(cmd.Context(), database); err != nil {
			return err
		}
		fmt.Println("database seeded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seed(ctx context.Context, database *sql.DB) error {
	if err := wipe(ctx, database); err != nil {
		return fmt.Errorf("wipe existing data failed: %w", err)
	}

	users := store.NewUserRepository(database)
	books := store.NewBookRepository(database)
	reviews := store.NewReviewRepository(database)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password failed: %w", err)
	}

	seedUsers := []types.User{
		{Name: "Alice Johnson", Email: "alice@example.com"},
		{Name: "Bob Smith", Email: "bob@example.com"},
		{Name: "Charlie Brown", Email: "charlie@example.com"},
	}
	for i, user := range seedUsers {
		user.PasswordHash = string(hash)
		created, err := users.Create(ctx, user)
		if err != nil {
			return fmt.Errorf("seed user %q failed: %w", user.Email, err)
		}
		seedUsers[i] = created
	}
	alice, bob, charlie := seedUsers[0], seedUsers[1], seedUsers[2]

	seedBooks := []types.Book{
		{
			Title:       "The Great MERN Project",
			Author:      "Jane Doe",
			Description: "A thrilling tale of asynchronous JavaScript and database connections.",
			Genre:       "Technology",
			Year:        2024,
			OwnerID:     alice.ID,
		},
		{
			Title:       "1984",
			Author:      "George Orwell",
			Description: "A dystopian social science fiction novel and cautionary tale.",
			Genre:       "Dystopian Fiction",
			Year:        1949,
			OwnerID:     bob.ID,
		},
		{
			Title:       "Where the Crawdads Sing",
			Author:      "Delia Owens",
			Description: "A coming-of-age murder mystery set in the marshes of North Carolina.",
			Genre:       "Literary Fiction",
			Year:        2018,
			OwnerID:     charlie.ID,
		},
		{
			Title:       "Sapiens: A Brief History of Humankind",
			Author:      "Yuval Noah Harari",
			Description: "An exploration of the history of the human species.",
			Genre:       "Non-Fiction",
			Year:        2011,
			OwnerID:     alice.ID,
		},
		{
			Title:       "Dune",
			Author:      "Frank Herbert",
			Description: "A science fiction epic set in the distant future amidst a feudal interstellar society.",
			Genre:       "Science Fiction",
			Year:        1965,
			OwnerID:     bob.ID,
		},
	}
	for i, book := range seedBooks {
		created, err := books.Create(ctx, book)
		if err != nil {
			return fmt.Errorf("seed book %q failed: %w", book.Title, err)
		}
		seedBooks[i] = created
	}

	seedReviews := []types.Review{
		{BookID: seedBooks[0].ID, AuthorID: bob.ID, Rating: 5, ReviewText: "Absolutely riveting! I could not put it down. The error handling subplot was gripping."},
		{BookID: seedBooks[0].ID, AuthorID: charlie.ID, Rating: 4, ReviewText: "A solid read, though the middleware chapter dragged on a bit."},
		{BookID: seedBooks[0].ID, AuthorID: alice.ID, Rating: 5, ReviewText: "I may be biased, but this is a masterpiece."},
		{BookID: seedBooks[1].ID, AuthorID: alice.ID, Rating: 5, ReviewText: "A timeless classic that feels more relevant every year."},
		{BookID: seedBooks[1].ID, AuthorID: charlie.ID, Rating: 4, ReviewText: "Bleak but brilliant. Big Brother gave me chills."},
		{BookID: seedBooks[4].ID, AuthorID: alice.ID, Rating: 5, ReviewText: "The spice must flow. An incredible world to get lost in."},
		{BookID: seedBooks[4].ID, AuthorID: charlie.ID, Rating: 3, ReviewText: "Impressive scope, but I found the pacing uneven."},
	}
	for _, review := range seedReviews {
		if _, err := reviews.Create(ctx, review); err != nil {
			return fmt.Errorf("seed review for book %d failed: %w", review.BookID, err)
		}
	}

	return nil
}

// wipe clears seeded tables child-first so the user foreign keys hold.
func wipe(ctx context.Context, database *sql.DB) error {
	for _, table := range []string{"reviews", "books", "users"} {
		if _, err := database.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
