package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/yusufwdn/reimverse/internal/notification"
	notificationAMQP "github.com/yusufwdn/reimverse/internal/notification/amqp"
	"github.com/yusufwdn/reimverse/internal/user"
	userPostgres "github.com/yusufwdn/reimverse/internal/user/postgres"
)

var notificationCmd = &cobra.Command{
	Use:   "notification",
	Short: "Notification tooling",
}

var publishTestCmd = &cobra.Command{
	Use:   "publish-test",
	Short: "Send a test notification to a user",
	Long:  `Publish a test notification through the broker, or deliver it directly when no broker is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestNotification(testRecipientID, testMessage)
	},
}

var (
	testRecipientID int64
	testMessage     string
)

func publishTestNotification(recipientID int64, text string) error {
	deps, err := initializeDependencies()
	if err != nil {
		return err
	}
	defer deps.Close()
	lg := deps.Logger
	ctx := context.Background()

	users := user.NewService(userPostgres.NewUserRepository(deps.Gorm), deps.Config.Security.BCryptCost, lg)
	recipient, err := users.GetByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("recipient %d: %w", recipientID, err)
	}

	msg := &notification.Message{
		ID:             uuid.NewString(),
		Type:           "test",
		RecipientID:    recipient.ID,
		RecipientName:  recipient.Name,
		RecipientEmail: recipient.Email,
		Subject:        "Test notification",
		Greeting:       fmt.Sprintf("Hello %s,", recipient.Name),
		Lines:          []string{text},
		Data:           map[string]interface{}{"message": text, "source": "cli-command"},
		CreatedAt:      time.Now().UTC(),
	}

	cfg := deps.Config.Queue
	if cfg.AMQPURL != "" {
		client, err := notificationAMQP.Dial(cfg.AMQPURL, cfg.Exchange, cfg.Queue, lg)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Enqueue(ctx, msg); err != nil {
			return err
		}
		lg.Info("test notification published", "notification_id", msg.ID, "recipient_id", msg.RecipientID)
		return nil
	}

	pool := newNotificationPool(deps)
	done := make(chan error, 1)
	if err := pool.Submit(notification.Job{Message: msg, Done: func(err error) { done <- err }}); err != nil {
		pool.Shutdown()
		return err
	}
	err = <-done
	pool.Shutdown()
	if err != nil {
		return fmt.Errorf("deliver test notification: %w", err)
	}
	lg.Info("test notification delivered", "notification_id", msg.ID, "recipient_id", msg.RecipientID)
	return nil
}

func init() {
	publishTestCmd.Flags().Int64Var(&testRecipientID, "user-id", 0, "recipient user id")
	publishTestCmd.Flags().StringVar(&testMessage, "message", "test message", "notification text")
	_ = publishTestCmd.MarkFlagRequired("user-id")

	notificationCmd.AddCommand(publishTestCmd)
}
