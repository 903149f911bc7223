package activity

import (
	"time"

	activityDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/activity"
)

type Action string

const (
	ActionCreated  Action = "created"
	ActionApproved Action = "approved"
	ActionRejected Action = "rejected"
	ActionDeleted  Action = "deleted"
)

// Entry is an activity log row joined with the acting user's name. UserName
// is nil when the actor no longer exists.
type Entry struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	UserName        *string   `json:"user_name" db:"user_name"`
	ReimbursementID int64     `json:"reimbursement_id" db:"reimbursement_id"`
	Action          Action    `json:"action" db:"action"`
	Description     string    `json:"description" db:"description"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

func newLog(actorID, reimbursementID int64, action Action, description string) *activityDatamodel.ActivityLog {
	return &activityDatamodel.ActivityLog{
		UserID:          actorID,
		ReimbursementID: reimbursementID,
		Action:          string(action),
		Description:     description,
	}
}

// Created builds the entry for a new claim. The reimbursement id is filled in
// by the repository once the claim row has one.
func Created(actorID int64) *activityDatamodel.ActivityLog {
	return newLog(actorID, 0, ActionCreated, "Reimbursement request created")
}

func Approved(actorID, reimbursementID int64) *activityDatamodel.ActivityLog {
	return newLog(actorID, reimbursementID, ActionApproved, "Reimbursement request approved")
}

func Rejected(actorID, reimbursementID int64, reason string) *activityDatamodel.ActivityLog {
	return newLog(actorID, reimbursementID, ActionRejected, "Reimbursement request rejected reason: "+reason)
}

func Deleted(actorID, reimbursementID int64) *activityDatamodel.ActivityLog {
	return newLog(actorID, reimbursementID, ActionDeleted, "Reimbursement request deleted")
}
