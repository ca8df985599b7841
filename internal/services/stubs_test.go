package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/pennywise-app/apiserver/internal/storage"
	"github.com/pennywise-app/apiserver/internal/store"
	"github.com/pennywise-app/apiserver/types"
)

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]types.User
	// createErr, when set, is returned by Create instead of inserting.
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]types.User)}
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
	if r.createErr != nil {
		return types.User{}, r.createErr
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
}

func (r *stubTransactionRepo) ListByUser(_ context.Context, userID int) ([]types.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, evt types.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) eventTypes() []types.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.EventType, 0, len(p.events))
	for _, evt := range p.events {
		out = append(out, evt.Type)
	}
	return out
}

type memObjects struct {
	objects map[string][]byte
	last    storage.Statement
	err     error
}

func (m *memObjects) EnsureBucket(context.Context) error { return nil }

func (m *memObjects) PutStatement(_ context.Context, stmt storage.Statement) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(stmt.Body)
	if err != nil {
		return err
	}
	if int64(len(data)) != stmt.Size {
		return io.ErrShortWrite
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[stmt.Key] = bytes.Clone(data)
	stmt.Body = nil
	m.last = stmt
	return nil
}

func (m *memObjects) Bucket() string { return "statements" }

// fields builds TransactionFields from a JSON object literal.
func fields(t *testing.T, body string) TransactionFields {
	t.Helper()
	var f TransactionFields
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		t.Fatalf("bad test payload %s: %v", body, err)
	}
	return f
}
