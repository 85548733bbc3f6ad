package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/calendar-sharing/internal/core/events"
	"github.com/frahmantamala/calendar-sharing/internal/email"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage worker pools for background delivery like email notifications.`,
}

var emailWorkerCmd = &cobra.Command{
	Use:   "email",
	Short: "Start email delivery worker pool",
	Long:  `Start the email worker pool for delivering queued notification mail`,
	Run: func(cmd *cobra.Command, args []string) {
		startEmailWorker()
	},
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start the event bus `,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	emailMaxWorkers  int
	emailQueueSize   int
	emailProviderURL string
	emailProviderKey string
)

func startEmailWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	// Use command line flags if provided, otherwise use config values
	emailConfig := config.Email
	if emailMaxWorkers > 0 {
		emailConfig.MaxWorkers = emailMaxWorkers
	}
	if emailQueueSize > 0 {
		emailConfig.JobQueueSize = emailQueueSize
	}
	if emailProviderURL != "" {
		emailConfig.ProviderURL = emailProviderURL
	}
	if emailProviderKey != "" {
		emailConfig.APIKey = emailProviderKey
	}

	logger.Info("starting email worker",
		"max_workers", emailConfig.MaxWorkers,
		"job_queue_size", emailConfig.JobQueueSize,
		"provider_url", emailConfig.ProviderURL)

	client := email.NewClient(emailConfig, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("email worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	logger.Info("received signal, shutting down email worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		client.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Info("email worker pool shutdown complete")
	case <-ctx.Done():
		logger.Warn("shutdown timeout reached, forcing exit")
	}
}

func startEventWorker() {
	_, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe("test.event", func(ctx context.Context, event events.Event) error {
		logger.Info("received test event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	logger.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("received signal, shutting down event bus", "signal", sig)
	logger.Info("event bus shutdown complete")
}

func init() {
	emailWorkerCmd.Flags().IntVar(&emailMaxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	emailWorkerCmd.Flags().IntVar(&emailQueueSize, "queue-size", 0, "Mail queue buffer size (overrides config)")
	emailWorkerCmd.Flags().StringVar(&emailProviderURL, "provider-url", "", "Mail provider API URL (overrides config)")
	emailWorkerCmd.Flags().StringVar(&emailProviderKey, "api-key", "", "Mail provider API key (overrides config)")

	workerCmd.AddCommand(emailWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)
}
