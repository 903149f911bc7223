package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	notificationDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/notification"
)

type Store interface {
	Exists(ctx context.Context, id string) (bool, error)
	Insert(ctx context.Context, row *notificationDatamodel.Notification) (bool, error)
}

// Deliverer sends the mail and records the database notification. A message
// whose row already exists was delivered before and is skipped, which makes
// redelivery from the broker harmless.
type Deliverer struct {
	store  Store
	mailer Mailer
	logger *slog.Logger
}

func NewDeliverer(store Store, mailer Mailer, logger *slog.Logger) *Deliverer {
	return &Deliverer{store: store, mailer: mailer, logger: logger}
}

func (d *Deliverer) Deliver(ctx context.Context, msg *Message) error {
	done, err := d.store.Exists(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("check notification %s: %w", msg.ID, err)
	}
	if done {
		d.logger.Info("notification already delivered", "notification_id", msg.ID)
		return nil
	}

	if msg.RecipientEmail != "" {
		if err := d.mailer.Send(ctx, Mail{
			To:      msg.RecipientEmail,
			ToName:  msg.RecipientName,
			Subject: msg.Subject,
			Body:    msg.Body(),
		}); err != nil {
			return err
		}
	}

	data, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}
	row := &notificationDatamodel.Notification{
		ID:        msg.ID,
		UserID:    msg.RecipientID,
		Type:      msg.Type,
		Data:      string(data),
		CreatedAt: msg.CreatedAt,
	}
	if _, err := d.store.Insert(ctx, row); err != nil {
		return fmt.Errorf("store notification %s: %w", msg.ID, err)
	}

	d.logger.Info("notification delivered",
		"notification_id", msg.ID,
		"type", msg.Type,
		"recipient_id", msg.RecipientID)
	return nil
}
