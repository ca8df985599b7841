package services

import (
	"context"
	"time"

	"github.com/pennywise-app/apiserver/internal/metrics"
	"github.com/pennywise-app/apiserver/types"
	"github.com/rs/zerolog"
)

// TransactionRepository defines owner-scoped persistence for transactions.
// UpdateForUser and DeleteForUser return store.ErrNotFound when no row
// matches both id and owner.
type TransactionRepository interface {
	ListByUser(ctx context.Context, userID int) ([]types.Transaction, error)
	Create(ctx context.Context, tx types.Transaction) (types.Transaction, error)
	UpdateForUser(ctx context.Context, id, userID int, patch types.TransactionPatch) (types.Transaction, error)
	DeleteForUser(ctx context.Context, id, userID int) error
}

// TransactionService encapsulates transaction use-cases for one owner at a time.
type TransactionService struct {
	repo   TransactionRepository
	events EventPublisher
	log    zerolog.Logger
}

func NewTransactionService(repo TransactionRepository, events EventPublisher, log zerolog.Logger) *TransactionService {
	return &TransactionService{repo: repo, events: events, log: log}
}

func (s *TransactionService) List(ctx context.Context, ownerID int) ([]types.Transaction, error) {
	return s.repo.ListByUser(ctx, ownerID)
}

// Create validates fields and stores a transaction owned by ownerID.
// Validation failures wrap ErrMissingField or ErrInvalidFormat.
func (s *TransactionService) Create(ctx context.Context, ownerID int, fields TransactionFields) (types.Transaction, error) {
	tx, err := fields.transaction()
	if err != nil {
		return types.Transaction{}, err
	}
	tx.UserID = ownerID

	created, err := s.repo.Create(ctx, tx)
	if err != nil {
		return types.Transaction{}, err
	}

	metrics.TransactionsWrittenTotal.WithLabelValues("create").Inc()
	s.publish(ctx, types.EventTransactionCreated, created.UserID, created.ID)
	return created, nil
}

// Update applies the fields present in fields to the caller's transaction.
// Fields are validated before the lookup, so a malformed payload is
// rejected the same way whether or not the id exists.
func (s *TransactionService) Update(ctx context.Context, ownerID, id int, fields TransactionFields) (types.Transaction, error) {
	patch, err := fields.patch()
	if err != nil {
		return types.Transaction{}, err
	}

	updated, err := s.repo.UpdateForUser(ctx, id, ownerID, patch)
	if err != nil {
		return types.Transaction{}, err
	}

	metrics.TransactionsWrittenTotal.WithLabelValues("update").Inc()
	s.publish(ctx, types.EventTransactionUpdated, ownerID, id)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id int) error {
	if err := s.repo.DeleteForUser(ctx, id, ownerID); err != nil {
		return err
	}

	metrics.TransactionsWrittenTotal.WithLabelValues("delete").Inc()
	s.publish(ctx, types.EventTransactionDeleted, ownerID, id)
	return nil
}

func (s *TransactionService) publish(ctx context.Context, eventType types.EventType, ownerID, id int) {
	publish(ctx, s.events, s.log, types.Event{
		Type:          eventType,
		UserID:        ownerID,
		TransactionID: id,
		OccurredAt:    time.Now().UTC(),
	})
}
