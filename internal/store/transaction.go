package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pennywise-app/apiserver/types"
)

// TransactionRepository handles persistence for transactions. Every
// lookup is filtered by both transaction id and owner, so a row owned by
// another user is indistinguishable from a missing one.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID int) ([]types.Transaction, error) {
	const query = `
		SELECT id, user_id, type, category, amount, description, date
		FROM transactions
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]types.Transaction, 0)
	for rows.Next() {
		var tx types.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Type,
			&tx.Category,
			&tx.Amount,
			&tx.Description,
			&tx.Date.Time,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *TransactionRepository) Create(ctx context.Context, tx types.Transaction) (types.Transaction, error) {
	// The date is sent as text so the session time zone cannot shift it.
	const query = `
		INSERT INTO transactions (user_id, type, category, amount, description, date)
		VALUES ($1, $2, $3, $4, $5, $6::date)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		tx.UserID,
		tx.Type,
		tx.Category,
		tx.Amount,
		tx.Description,
		tx.Date.String(),
	).Scan(&tx.ID); err != nil {
		return types.Transaction{}, err
	}
	return tx, nil
}

// UpdateForUser applies the non-nil fields of patch in a single statement.
func (r *TransactionRepository) UpdateForUser(ctx context.Context, id, userID int, patch types.TransactionPatch) (types.Transaction, error) {
	var date *string
	if patch.Date != nil {
		s := patch.Date.String()
		date = &s
	}

	const query = `
		UPDATE transactions
		SET type = COALESCE($1, type),
			category = COALESCE($2, category),
			amount = COALESCE($3::double precision, amount),
			description = COALESCE($4, description),
			date = COALESCE($5::date, date)
		WHERE id = $6 AND user_id = $7
		RETURNING id, user_id, type, category, amount, description, date`
	var tx types.Transaction
	err := r.db.QueryRowContext(
		ctx,
		query,
		patch.Type,
		patch.Category,
		patch.Amount,
		patch.Description,
		date,
		id,
		userID,
	).Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Category,
		&tx.Amount,
		&tx.Description,
		&tx.Date.Time,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Transaction{}, ErrNotFound
		}
		return types.Transaction{}, err
	}
	return tx, nil
}

func (r *TransactionRepository) DeleteForUser(ctx context.Context, id, userID int) error {
	const query = `DELETE FROM transactions WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
