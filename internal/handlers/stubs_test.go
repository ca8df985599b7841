package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pennywise-app/apiserver/internal/services"
	"github.com/pennywise-app/apiserver/internal/storage"
	"github.com/pennywise-app/apiserver/internal/store"
	"github.com/pennywise-app/apiserver/types"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]types.User
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users == nil {
		r.users = make(map[string]types.User)
	}
	if _, exists := r.users[user.Username]; exists {
		return types.User{}, store.ErrConflict
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.Username] = user
	return user, nil
}

type stubTransactionRepo struct {
	mu     sync.Mutex
	nextID int
	rows   []types.Transaction
	// listErr, when set, is returned by ListByUser.
	listErr error
}

func (r *stubTransactionRepo) ListByUser(_ context.Context, userID int) ([]types.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]types.Transaction, 0)
	for _, tx := range r.rows {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *stubTransactionRepo) Create(_ context.Context, tx types.Transaction) (types.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tx.ID = r.nextID
	r.rows = append(r.rows, tx)
	return tx, nil
}

func (r *stubTransactionRepo) UpdateForUser(_ context.Context, id, userID int, patch types.TransactionPatch) (types.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, tx := range r.rows {
		if tx.ID != id || tx.UserID != userID {
			continue
		}
		if patch.Type != nil {
			tx.Type = *patch.Type
		}
		if patch.Category != nil {
			tx.Category = *patch.Category
		}
		if patch.Amount != nil {
			tx.Amount = *patch.Amount
		}
		if patch.Description != nil {
			tx.Description = *patch.Description
		}
		if patch.Date != nil {
			tx.Date = *patch.Date
		}
		r.rows[i] = tx
		return tx, nil
	}
	return types.Transaction{}, store.ErrNotFound
}

func (r *stubTransactionRepo) DeleteForUser(_ context.Context, id, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, tx := range r.rows {
		if tx.ID == id && tx.UserID == userID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type memObjects struct {
	mu   sync.Mutex
	keys []string
}

func (m *memObjects) EnsureBucket(context.Context) error { return nil }

func (m *memObjects) PutStatement(_ context.Context, stmt storage.Statement) error {
	if _, err := io.Copy(io.Discard, stmt.Body); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, stmt.Key)
	return nil
}

func (m *memObjects) Bucket() string { return "statements" }

type testEnv struct {
	router  *chi.Mux
	users   *stubUserRepo
	txs     *stubTransactionRepo
	tokens  *services.TokenService
	objects *memObjects
}

type envOption func(*envConfig)

type envConfig struct {
	opts    Options
	objects *memObjects
}

func withDebugErrors() envOption {
	return func(c *envConfig) { c.opts.DebugErrors = true }
}

func withObjects(objects *memObjects) envOption {
	return func(c *envConfig) { c.objects = objects }
}

// newTestEnv wires the handlers onto a chi router the way the server does.
func newTestEnv(t *testing.T, options ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{opts: Options{Logger: zerolog.Nop()}}
	for _, opt := range options {
		opt(&cfg)
	}

	env := &testEnv{
		users:   &stubUserRepo{},
		txs:     &stubTransactionRepo{},
		tokens:  services.NewTokenService(testSecret, time.Hour, 720*time.Hour),
		objects: cfg.objects,
	}

	userService := services.NewUserService(env.users, nil, zerolog.Nop())
	transactionService := services.NewTransactionService(env.txs, nil, zerolog.Nop())
	var objects storage.ObjectStorage
	if cfg.objects != nil {
		objects = cfg.objects
	}
	exportService := services.NewExportService(env.txs, objects)

	router := chi.NewRouter()
	AuthRouter(router, userService, env.tokens, cfg.opts)
	router.Route("/transactions", func(r chi.Router) {
		TransactionRouter(r, transactionService, exportService, RequireAuth(env.tokens), cfg.opts)
	})
	env.router = router
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := newRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(e, req)
}

func newRequest(method, path, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// accessToken issues an access token for userID without going through login.
func (e *testEnv) accessToken(t *testing.T, userID int) string {
	t.Helper()
	token, err := e.tokens.IssueAccess(userID)
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	return token
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
