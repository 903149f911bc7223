package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	notificationAMQP "github.com/yusufwdn/reimverse/internal/notification/amqp"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that consume queued jobs.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Deliver queued notifications",
	Long:  `Consume notification messages from the broker and deliver them to the database and by mail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNotificationWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	prefetch     int
)

func runNotificationWorker() error {
	deps, err := initializeDependencies()
	if err != nil {
		return err
	}
	defer deps.Close()
	lg := deps.Logger

	cfg := deps.Config.Queue
	if cfg.AMQPURL == "" {
		return errors.New("queue.amqp_url is required for the notification worker")
	}
	cfg.Workers = getIntFlag(maxWorkers, cfg.Workers)
	cfg.JobQueueSize = getIntFlag(jobQueueSize, cfg.JobQueueSize)
	deps.Config.Queue = cfg

	client, err := notificationAMQP.Dial(cfg.AMQPURL, cfg.Exchange, cfg.Queue, lg)
	if err != nil {
		return err
	}
	defer client.Close()

	pool := newNotificationPool(deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// unacked messages beyond the pool's capacity would only be requeued
		err := client.Consume(gctx, getIntFlag(prefetch, cfg.Workers+cfg.JobQueueSize), pool.Submit)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	lg.Info("notification worker is running", "max_workers", cfg.Workers, "job_queue_size", cfg.JobQueueSize)
	runErr := g.Wait()
	if runErr != nil {
		lg.Error("notification consumer stopped", "error", runErr)
	}

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()
	select {
	case <-done:
		lg.Info("notification worker shutdown complete")
	case <-time.After(shutdownTimeout):
		lg.Warn("shutdown timeout reached, forcing exit")
	}

	if runErr != nil {
		return fmt.Errorf("notification worker: %w", runErr)
	}
	return nil
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&prefetch, "prefetch", 0, "Unacknowledged messages held at once (default workers + queue size)")

	workerCmd.AddCommand(notificationWorkerCmd)
}
