package services

import (
	"context"

	"github.com/shelftalk/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	users   UserRepository
	books   BookRepository
	reviews ReviewRepository
}

func NewUserService(users UserRepository, books BookRepository, reviews ReviewRepository) *UserService {
	return &UserService{
		users:   users,
		books:   books,
		reviews: reviews,
	}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.users.Create(ctx, user)
}

// Profile returns the current-user view: the account, the books it
// owns ordered by title, and the reviews it authored newest first with
// book titles attached.
func (s *UserService) Profile(ctx context.Context, userID int) (types.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return types.Profile{}, err
	}
	books, err := s.books.ListByOwner(ctx, userID)
	if err != nil {
		return types.Profile{}, err
	}
	reviews, err := s.reviews.ListByAuthor(ctx, userID)
	if err != nil {
		return types.Profile{}, err
	}
	if books == nil {
		books = []types.Book{}
	}
	if reviews == nil {
		reviews = []types.Review{}
	}
	return types.Profile{
		User:    user,
		Books:   books,
		Reviews: reviews,
	}, nil
}
