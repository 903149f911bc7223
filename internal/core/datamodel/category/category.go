package category

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID            int64           `gorm:"primaryKey"`
	Name          string          `gorm:"column:name;size:255;not null"`
	LimitPerMonth decimal.Decimal `gorm:"column:limit_per_month;type:numeric(14,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Category) TableName() string {
	return "categories"
}
