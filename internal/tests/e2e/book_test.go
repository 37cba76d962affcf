//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/shelftalk/apiserver/config"
	"github.com/shelftalk/apiserver/internal/db"
	"github.com/shelftalk/apiserver/internal/server"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestBookLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()

	ownerToken, err := signupUser(t, baseURL, fmt.Sprintf("owner_%d@example.com", suffix), "Owner")
	if err != nil {
		t.Fatalf("signup owner: %v", err)
	}
	readerToken, err := signupUser(t, baseURL, fmt.Sprintf("reader_%d@example.com", suffix), "Reader")
	if err != nil {
		t.Fatalf("signup reader: %v", err)
	}

	created, err := createBook(t, baseURL, ownerToken)
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	if created.Title != "The Left Hand of Darkness" {
		t.Fatalf("unexpected book title: %q", created.Title)
	}
	if created.ID == 0 {
		t.Fatalf("expected book ID to be set")
	}

	updated, err := updateBook(t, baseURL, ownerToken, created.ID)
	if err != nil {
		t.Fatalf("update book: %v", err)
	}
	if updated.Genre != "Science Fiction" {
		t.Fatalf("unexpected updated genre: %q", updated.Genre)
	}

	if status, err := tryUpdateBook(t, baseURL, readerToken, created.ID); err != nil {
		t.Fatalf("non-owner update: %v", err)
	} else if status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner update, got %d", status)
	}

	if err := addReview(t, baseURL, readerToken, created.ID, 5, "A quiet, devastating book."); err != nil {
		t.Fatalf("add review: %v", err)
	}

	if status, err := tryAddReview(t, baseURL, readerToken, created.ID, 1, "changed my mind"); err != nil {
		t.Fatalf("duplicate review: %v", err)
	} else if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate review, got %d", status)
	}

	detail, err := getBookDetail(t, baseURL, created.ID)
	if err != nil {
		t.Fatalf("get book detail: %v", err)
	}
	if detail.AverageRating != 5 {
		t.Fatalf("unexpected average rating: %v", detail.AverageRating)
	}
	if len(detail.Reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(detail.Reviews))
	}

	if err := deleteBook(t, baseURL, ownerToken, created.ID); err != nil {
		t.Fatalf("delete book: %v", err)
	}

	if err := expectBookNotFound(t, baseURL, created.ID); err != nil {
		t.Fatalf("expected deleted book to be missing: %v", err)
	}
}

type bookResponse struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Genre string `json:"genre"`
}

type bookDetailResponse struct {
	AverageRating float64 `json:"average_rating"`
	Reviews       []struct {
		ID     int `json:"id"`
		Rating int `json:"rating"`
	} `json:"reviews"`
}

type authResponse struct {
	Token string `json:"token"`
}

func signupUser(t *testing.T, baseURL, email, name string) (string, error) {
	t.Helper()

	payload := map[string]string{
		"name":     name,
		"email":    email,
		"password": "testpass123!",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/auth/signup", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("signup status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("missing token in signup response")
	}
	return parsed.Token, nil
}

func createBook(t *testing.T, baseURL, token string) (bookResponse, error) {
	t.Helper()

	payload := map[string]any{
		"title":       "The Left Hand of Darkness",
		"author":      "Ursula K. Le Guin",
		"description": "An envoy on a planet whose inhabitants have no fixed sex.",
		"genre":       "Fiction",
		"year":        1969,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return bookResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/books", bytes.NewReader(body))
	if err != nil {
		return bookResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return bookResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return bookResponse{}, fmt.Errorf("create book status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed bookResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return bookResponse{}, err
	}
	return parsed, nil
}

func updateBook(t *testing.T, baseURL, token string, id int) (bookResponse, error) {
	t.Helper()

	status, parsed, err := sendBookPatch(baseURL, token, id)
	if err != nil {
		return bookResponse{}, err
	}
	if status != http.StatusOK {
		return bookResponse{}, fmt.Errorf("update book status %d", status)
	}
	return parsed, nil
}

func tryUpdateBook(t *testing.T, baseURL, token string, id int) (int, error) {
	t.Helper()

	status, _, err := sendBookPatch(baseURL, token, id)
	return status, err
}

func sendBookPatch(baseURL, token string, id int) (int, bookResponse, error) {
	payload := map[string]any{
		"genre": "Science Fiction",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, bookResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/books/%d", baseURL, id), bytes.NewReader(body))
	if err != nil {
		return 0, bookResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, bookResponse{}, err
	}
	defer resp.Body.Close()

	var parsed bookResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return resp.StatusCode, bookResponse{}, err
		}
	}
	return resp.StatusCode, parsed, nil
}

func addReview(t *testing.T, baseURL, token string, bookID, rating int, text string) error {
	t.Helper()

	status, err := tryAddReview(t, baseURL, token, bookID, rating, text)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("add review status %d", status)
	}
	return nil
}

func tryAddReview(t *testing.T, baseURL, token string, bookID, rating int, text string) (int, error) {
	t.Helper()

	payload := map[string]any{
		"book_id":     bookID,
		"rating":      rating,
		"review_text": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/reviews", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func getBookDetail(t *testing.T, baseURL string, id int) (bookDetailResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/books/%d", baseURL, id), nil)
	if err != nil {
		return bookDetailResponse{}, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return bookDetailResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return bookDetailResponse{}, fmt.Errorf("get book status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed bookDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return bookDetailResponse{}, err
	}
	return parsed, nil
}

func deleteBook(t *testing.T, baseURL, token string, id int) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/books/%d", baseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete book status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func expectBookNotFound(t *testing.T, baseURL string, id int) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/books/%d", baseURL, id), nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected 404 after delete, got %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.DSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, db.DSN(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "shelftalk")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "shelftalk_db")
	_ = os.Setenv("DB_USE_SSL", "false")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
