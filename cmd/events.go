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
	"time"

	"github.com/jjudge-oj/imageforms/config"
	"github.com/jjudge-oj/imageforms/internal/mq"
	"github.com/jjudge-oj/imageforms/types"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tails record change events",
	Long: `Subscribes to the record events channel and prints one line per
created, updated or deleted record. Every running tail sees every event.
Requires EVENTS_BACKEND to be set to rabbitmq or pubsub; the memory backend
only reaches listeners inside the server process. Usage:

	imageforms events
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := openEventsTail(ctx, cfg.Events)
		if err != nil {
			return err
		}
		defer events.Close()

		out := cmd.OutOrStdout()
		err = events.Tail(ctx, func(_ context.Context, evt types.RecordEvent) error {
			_, err := fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", evt.OccurredAt.Local().Format(time.DateTime), evt.Type, evt.Collection, evt.RecordID)
			return err
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// openEventsTail connects to a broker another process can publish to.
func openEventsTail(ctx context.Context, cfg config.EventsConfig) (*mq.RecordEvents, error) {
	switch cfg.Backend {
	case "":
		return nil, errors.New("EVENTS_BACKEND is not set; use rabbitmq or pubsub")
	case config.EventsMemory:
		return nil, errors.New("EVENTS_BACKEND=memory is only visible inside the server process; use rabbitmq or pubsub")
	}

	broker, err := mq.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return mq.NewRecordEvents(broker, cfg.Channel), nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
