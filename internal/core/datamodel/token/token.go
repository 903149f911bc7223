package token

import "time"

type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;column:jti;size:36"`
	UserID    int64     `gorm:"column:user_id;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	RevokedAt time.Time `gorm:"column:revoked_at;not null"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
