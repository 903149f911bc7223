package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeReimbursementSubmitted = "reimbursement.submitted"
	EventTypeReimbursementDecided   = "reimbursement.decided"
)

type ReimbursementSubmittedEvent struct {
	BaseEvent
	ReimbursementID int64           `json:"reimbursement_id"`
	Title           string          `json:"title"`
	Amount          decimal.Decimal `json:"amount"`
	CategoryName    string          `json:"category_name"`
	UserID          int64           `json:"user_id"`
	UserName        string          `json:"user_name"`
}

func NewReimbursementSubmittedEvent(reimbursementID int64, title string, amount decimal.Decimal, categoryName string, userID int64, userName string) *ReimbursementSubmittedEvent {
	return &ReimbursementSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeReimbursementSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reimbursement_id": reimbursementID,
				"title":            title,
				"amount":           amount.StringFixed(2),
				"category_name":    categoryName,
				"user_id":          userID,
				"user_name":        userName,
			},
		},
		ReimbursementID: reimbursementID,
		Title:           title,
		Amount:          amount,
		CategoryName:    categoryName,
		UserID:          userID,
		UserName:        userName,
	}
}

// ReimbursementDecidedEvent is raised after an approve or reject commits.
type ReimbursementDecidedEvent struct {
	BaseEvent
	ReimbursementID int64           `json:"reimbursement_id"`
	Title           string          `json:"title"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	Reason          string          `json:"reason,omitempty"`
	OwnerID         int64           `json:"owner_id"`
	DeciderID       int64           `json:"decider_id"`
	DeciderName     string          `json:"decider_name"`
}

func NewReimbursementDecidedEvent(reimbursementID int64, title string, amount decimal.Decimal, status, reason string, ownerID, deciderID int64, deciderName string) *ReimbursementDecidedEvent {
	return &ReimbursementDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeReimbursementDecided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reimbursement_id": reimbursementID,
				"title":            title,
				"amount":           amount.StringFixed(2),
				"status":           status,
				"reason":           reason,
				"owner_id":         ownerID,
				"decider_id":       deciderID,
				"decider_name":     deciderName,
			},
		},
		ReimbursementID: reimbursementID,
		Title:           title,
		Amount:          amount,
		Status:          status,
		Reason:          reason,
		OwnerID:         ownerID,
		DeciderID:       deciderID,
		DeciderName:     deciderName,
	}
}
