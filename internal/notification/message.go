package notification

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeReimbursementSubmitted = "reimbursement_submitted"
	TypeReimbursementDecided   = "reimbursement_decided"
)

// Message is one notification addressed to one recipient. It is what travels
// over the queue; the worker turns it into a database row and an email.
type Message struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	RecipientID    int64                  `json:"recipient_id"`
	RecipientName  string                 `json:"recipient_name"`
	RecipientEmail string                 `json:"recipient_email"`
	Subject        string                 `json:"subject"`
	Greeting       string                 `json:"greeting"`
	Lines          []string               `json:"lines"`
	ActionText     string                 `json:"action_text,omitempty"`
	ActionURL      string                 `json:"action_url,omitempty"`
	Data           map[string]interface{} `json:"data"`
	CreatedAt      time.Time              `json:"created_at"`
}

// MessageID derives a stable id from the notification type, the source event
// and the recipient. Redelivered messages map onto the same row.
func MessageID(notificationType, eventID string, recipientID int64) string {
	name := fmt.Sprintf("%s:%s:%d", notificationType, eventID, recipientID)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.RecipientID == 0 {
		return nil, fmt.Errorf("notification message missing id or recipient")
	}
	return &msg, nil
}

// Body renders the plain-text mail body.
func (m *Message) Body() string {
	var b strings.Builder
	if m.Greeting != "" {
		b.WriteString(m.Greeting)
		b.WriteString("\n\n")
	}
	for _, line := range m.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.ActionURL != "" {
		b.WriteString("\n")
		b.WriteString(m.ActionText)
		b.WriteString(": ")
		b.WriteString(m.ActionURL)
		b.WriteString("\n")
	}
	b.WriteString("\nThank you for using our application!\n")
	return b.String()
}

// FormatAmount renders an amount with two decimals and comma thousand
// separators, e.g. 1,250,000.50.
func FormatAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return sign + grouped.String() + "." + frac
}
