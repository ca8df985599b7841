package services

import (
	"context"

	"github.com/pennywise-app/apiserver/types"
	"github.com/rs/zerolog"
)

// EventPublisher publishes ledger changes after they are committed.
type EventPublisher interface {
	PublishEvent(ctx context.Context, evt types.Event) error
}

// publish never fails the caller: the write it reports is already committed.
func publish(ctx context.Context, pub EventPublisher, log zerolog.Logger, evt types.Event) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(ctx, evt); err != nil {
		log.Warn().
			Err(err).
			Str("event_type", string(evt.Type)).
			Int("user_id", evt.UserID).
			Int("transaction_id", evt.TransactionID).
			Msg("failed to publish ledger event")
	}
}
