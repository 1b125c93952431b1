package command

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/smart-parking/internal/config"
	"github.com/iliyamo/smart-parking/internal/logging"
	"github.com/iliyamo/smart-parking/internal/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume session events and append them to the session log",
	RunE: func(_ *cobra.Command, _ []string) error {
		logging.Init(os.Getenv("APP_ENV") != "prod")
		ac := config.LoadAMQPConfig()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logging.Info(ctx).Str("queue", ac.Queue).Str("file", ac.LogFile).Msg("consuming session events")
		err := queue.StartSessionConsumer(ctx, ac.URL, ac.Queue, queue.NewSessionLog(ac.LogFile))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
