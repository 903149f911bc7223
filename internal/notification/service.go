package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/auth"
	notificationDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/notification"
	"github.com/yusufwdn/reimverse/internal/transport"
)

type RepositoryAPI interface {
	Store
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, page transport.Pagination) ([]*notificationDatamodel.Notification, int64, error)
	MarkRead(ctx context.Context, userID int64, id string, at time.Time) (bool, error)
}

// Notification is the inbox view of a stored notification.
type Notification struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	ReadAt    *time.Time             `json:"read_at"`
	CreatedAt time.Time              `json:"created_at"`
}

func FromDataModel(row *notificationDatamodel.Notification) (*Notification, error) {
	n := &Notification{
		ID:        row.ID,
		Type:      row.Type,
		ReadAt:    row.ReadAt,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.Data), &n.Data); err != nil {
		return nil, fmt.Errorf("decode notification %s: %w", row.ID, err)
	}
	return n, nil
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context, actor auth.Actor, unreadOnly bool, page transport.Pagination) ([]*Notification, int64, error) {
	rows, total, err := s.repo.ListByUser(ctx, actor.ID, unreadOnly, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]*Notification, 0, len(rows))
	for _, row := range rows {
		n, err := FromDataModel(row)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, nil
}

// MarkRead only touches the caller's own notifications. Reading one twice is
// not an error.
func (s *Service) MarkRead(ctx context.Context, actor auth.Actor, id string) error {
	ok, err := s.repo.MarkRead(ctx, actor.ID, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	if !ok {
		return internal.ErrRecordNotFound
	}
	return nil
}
