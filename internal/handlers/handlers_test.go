package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shelftalk/apiserver/internal/services"
	"github.com/shelftalk/apiserver/internal/store"
	"github.com/shelftalk/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "handlers-test-secret"

// memUserRepo is an in-memory services.UserRepository.
type memUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: map[int]types.User{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

// memBookRepo is an in-memory services.BookRepository.
type memBookRepo struct {
	nextID int
	books  map[int]types.Book
}

func newMemBookRepo() *memBookRepo {
	return &memBookRepo{nextID: 1, books: map[int]types.Book{}}
}

func (r *memBookRepo) ListAll(ctx context.Context) ([]types.Book, error) {
	out := make([]types.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memBookRepo) Get(ctx context.Context, id int) (types.Book, error) {
	book, ok := r.books[id]
	if !ok {
		return types.Book{}, store.ErrNotFound
	}
	return book, nil
}

func (r *memBookRepo) ListByOwner(ctx context.Context, ownerID int) ([]types.Book, error) {
	out := make([]types.Book, 0)
	for _, b := range r.books {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *memBookRepo) Create(ctx context.Context, book types.Book) (types.Book, error) {
	book.ID = r.nextID
	r.nextID++
	r.books[book.ID] = book
	return book, nil
}

func (r *memBookRepo) Update(ctx context.Context, book types.Book) (types.Book, error) {
	if _, ok := r.books[book.ID]; !ok {
		return types.Book{}, store.ErrNotFound
	}
	r.books[book.ID] = book
	return book, nil
}

func (r *memBookRepo) SetCoverKey(ctx context.Context, id int, coverKey string) error {
	book, ok := r.books[id]
	if !ok {
		return store.ErrNotFound
	}
	book.CoverKey = coverKey
	r.books[id] = book
	return nil
}

func (r *memBookRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.books[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

// memReviewRepo is an in-memory services.ReviewRepository.
type memReviewRepo struct {
	nextID  int
	reviews map[int]types.Review
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{nextID: 1, reviews: map[int]types.Review{}}
}

func (r *memReviewRepo) ListAll(ctx context.Context) ([]types.Review, error) {
	out := make([]types.Review, 0, len(r.reviews))
	for _, v := range r.reviews {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memReviewRepo) ListByBook(ctx context.Context, bookID int) ([]types.Review, error) {
	out := make([]types.Review, 0)
	for _, v := range r.reviews {
		if v.BookID == bookID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memReviewRepo) ListByAuthor(ctx context.Context, authorID int) ([]types.Review, error) {
	out := make([]types.Review, 0)
	for _, v := range r.reviews {
		if v.AuthorID == authorID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memReviewRepo) Get(ctx context.Context, id int) (types.Review, error) {
	review, ok := r.reviews[id]
	if !ok {
		return types.Review{}, store.ErrNotFound
	}
	return review, nil
}

func (r *memReviewRepo) GetByBookAndAuthor(ctx context.Context, bookID, authorID int) (types.Review, error) {
	for _, v := range r.reviews {
		if v.BookID == bookID && v.AuthorID == authorID {
			return v, nil
		}
	}
	return types.Review{}, store.ErrNotFound
}

func (r *memReviewRepo) Create(ctx context.Context, review types.Review) (types.Review, error) {
	review.ID = r.nextID
	r.nextID++
	r.reviews[review.ID] = review
	return review, nil
}

func (r *memReviewRepo) Update(ctx context.Context, review types.Review) (types.Review, error) {
	if _, ok := r.reviews[review.ID]; !ok {
		return types.Review{}, store.ErrNotFound
	}
	r.reviews[review.ID] = review
	return review, nil
}

func (r *memReviewRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.reviews, id)
	return nil
}

func (r *memReviewRepo) DeleteByBook(ctx context.Context, bookID int) error {
	for id, v := range r.reviews {
		if v.BookID == bookID {
			delete(r.reviews, id)
		}
	}
	return nil
}

// testEnv wires the full route tree over in-memory repositories, the
// same shape the server mounts.
type testEnv struct {
	router  chi.Router
	users   *memUserRepo
	books   *memBookRepo
	reviews *memReviewRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:   newMemUserRepo(),
		books:   newMemBookRepo(),
		reviews: newMemReviewRepo(),
	}

	userService := services.NewUserService(env.users, env.books, env.reviews)
	bookService := services.NewBookService(env.books, env.reviews, nil, nil)
	reviewService := services.NewReviewService(env.reviews, env.books, nil)

	authMiddleware := RequireAuth(testSecret)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testSecret)
	})
	router.Route("/books", func(r chi.Router) {
		BookRouter(r, bookService, authMiddleware)
	})
	router.Route("/reviews", func(r chi.Router) {
		ReviewRouter(r, reviewService, authMiddleware)
	})

	env.router = router
	return env
}

// addUser seeds an account and returns it with a valid bearer token.
func (env *testEnv) addUser(t *testing.T, name, email string) (types.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := env.users.Create(context.Background(), types.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	require.NoError(t, err)

	token, err := issueToken(user.ID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return user, token
}

func (env *testEnv) addBook(t *testing.T, book types.Book) types.Book {
	t.Helper()
	created, err := env.books.Create(context.Background(), book)
	require.NoError(t, err)
	return created
}

func (env *testEnv) addReview(t *testing.T, review types.Review) types.Review {
	t.Helper()
	created, err := env.reviews.Create(context.Background(), review)
	require.NoError(t, err)
	return created
}

// do performs a request against the route tree. A nil body sends no
// payload; a non-empty token is attached as a bearer credential.
func (env *testEnv) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func itoa(id int) string {
	return strconv.Itoa(id)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
