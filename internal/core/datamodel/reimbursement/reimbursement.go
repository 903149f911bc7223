package reimbursement

import (
	"time"

	categoryDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/category"
	userDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/user"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Reimbursement struct {
	ID          int64           `gorm:"primaryKey"`
	UserID      int64           `gorm:"column:user_id;not null;index"`
	CategoryID  int64           `gorm:"column:category_id;not null;index"`
	Title       string          `gorm:"column:title;size:255;not null"`
	Description *string         `gorm:"column:description"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Status      string          `gorm:"column:status;size:20;not null;index"`
	ReceiptPath string          `gorm:"column:receipt_path;not null"`
	SubmittedAt time.Time       `gorm:"column:submitted_at;not null"`
	ApprovedAt  *time.Time      `gorm:"column:approved_at"`
	Reason      *string         `gorm:"column:reason"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt  `gorm:"column:deleted_at;index"`

	Category *categoryDatamodel.Category `gorm:"foreignKey:CategoryID"`
	User     *userDatamodel.User         `gorm:"foreignKey:UserID"`
}

func (Reimbursement) TableName() string {
	return "reimbursements"
}
