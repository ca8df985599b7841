/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pennywise-app/apiserver/internal/events"
	"github.com/pennywise-app/apiserver/types"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect ledger change events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Subscribe to the events channel and log every event",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus, err := events.NewFromConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init events: %w", err)
		}
		defer bus.Close()

		log.Info().Str("channel", bus.Channel()).Msg("tailing events")
		err = bus.Subscribe(ctx, func(_ context.Context, evt types.Event) error {
			log.Info().
				Str("event_type", string(evt.Type)).
				Int("user_id", evt.UserID).
				Int("transaction_id", evt.TransactionID).
				Time("occurred_at", evt.OccurredAt).
				Msg("event")
			return nil
		})
		switch {
		case errors.Is(err, events.ErrDisabled):
			return errors.New("EVENTS_BACKEND is none; nothing to tail")
		case errors.Is(err, context.Canceled):
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
