package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/yusufwdn/reimverse/internal/auth"
	"github.com/yusufwdn/reimverse/internal/core/events"
	"github.com/yusufwdn/reimverse/internal/user"
)

type Directory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	ListByRole(ctx context.Context, roles ...auth.Role) ([]*user.User, error)
}

// Notifier decides who hears about an event and what they are told.
// Submissions go to every manager; decisions go back to the claim owner.
type Notifier struct {
	users  Directory
	appURL string
}

func NewNotifier(users Directory, appURL string) *Notifier {
	return &Notifier{users: users, appURL: strings.TrimRight(appURL, "/")}
}

func (n *Notifier) ForSubmitted(ctx context.Context, e *events.ReimbursementSubmittedEvent) ([]*Message, error) {
	managers, err := n.users.ListByRole(ctx, auth.RoleManager)
	if err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}

	amount := FormatAmount(e.Amount)
	messages := make([]*Message, 0, len(managers))
	for _, m := range managers {
		messages = append(messages, &Message{
			ID:             MessageID(TypeReimbursementSubmitted, e.EventID(), m.ID),
			Type:           TypeReimbursementSubmitted,
			RecipientID:    m.ID,
			RecipientName:  m.Name,
			RecipientEmail: m.Email,
			Subject:        "New Reimbursement Request",
			Greeting:       "Hello " + m.Name + ",",
			Lines: []string{
				"A new reimbursement request has been submitted.",
				"Title: " + e.Title,
				"Amount: " + amount,
				"Category: " + e.CategoryName,
				"Submitted by: " + e.UserName,
			},
			ActionText: "View Request",
			ActionURL:  fmt.Sprintf("%s/manager/reimbursements/%d", n.appURL, e.ReimbursementID),
			Data: map[string]interface{}{
				"reimbursement_id": e.ReimbursementID,
				"title":            e.Title,
				"amount":           e.Amount.StringFixed(2),
				"user_id":          e.UserID,
				"user_name":        e.UserName,
			},
			CreatedAt: e.OccurredAt(),
		})
	}
	return messages, nil
}

func (n *Notifier) ForDecided(ctx context.Context, e *events.ReimbursementDecidedEvent) ([]*Message, error) {
	owner, err := n.users.GetByID(ctx, e.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("get claim owner %d: %w", e.OwnerID, err)
	}

	lines := []string{
		fmt.Sprintf("Your reimbursement request has been %s.", e.Status),
		"Title: " + e.Title,
		"Amount: " + FormatAmount(e.Amount),
		"Decided by: " + e.DeciderName,
	}
	if e.Reason != "" {
		lines = append(lines, "Reason: "+e.Reason)
	}

	return []*Message{{
		ID:             MessageID(TypeReimbursementDecided, e.EventID(), owner.ID),
		Type:           TypeReimbursementDecided,
		RecipientID:    owner.ID,
		RecipientName:  owner.Name,
		RecipientEmail: owner.Email,
		Subject:        "Reimbursement Request " + titleCase(e.Status),
		Greeting:       "Hello " + owner.Name + ",",
		Lines:          lines,
		ActionText:     "View Request",
		ActionURL:      fmt.Sprintf("%s/reimbursements/%d", n.appURL, e.ReimbursementID),
		Data: map[string]interface{}{
			"reimbursement_id": e.ReimbursementID,
			"title":            e.Title,
			"amount":           e.Amount.StringFixed(2),
			"status":           e.Status,
			"reason":           e.Reason,
			"decided_by":       e.DeciderName,
		},
		CreatedAt: e.OccurredAt(),
	}}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
