package activity

import "time"

// ActivityLog rows are insert-only.
type ActivityLog struct {
	ID              int64     `gorm:"primaryKey"`
	UserID          int64     `gorm:"column:user_id;not null;index"`
	ReimbursementID int64     `gorm:"column:reimbursement_id;not null;index"`
	Action          string    `gorm:"column:action;size:20;not null"`
	Description     string    `gorm:"column:description;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
