package notification

import "time"

type Notification struct {
	ID        string     `gorm:"primaryKey;column:id;size:36"`
	UserID    int64      `gorm:"column:user_id;not null;index"`
	Type      string     `gorm:"column:type;size:100;not null"`
	Data      string     `gorm:"column:data;not null"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
