package reimbursement

import (
	"time"

	"github.com/yusufwdn/reimverse/internal/category"
	categoryDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/category"
	reimbursementDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/reimbursement"
	"github.com/yusufwdn/reimverse/internal/user"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var AllStatuses = []Status{StatusPending, StatusApproved, StatusRejected}

// CountsTowardLimit reports whether claims in this status consume the monthly
// allowance of their category.
func (s Status) CountsTowardLimit() bool {
	switch s {
	case StatusPending, StatusApproved:
		return true
	case StatusRejected:
		return false
	default:
		return false
	}
}

type Reimbursement struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	CategoryID  int64             `json:"category_id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	Status      Status            `json:"status"`
	ReceiptPath string            `json:"receipt_path"`
	ReceiptURL  string            `json:"receipt_url"`
	SubmittedAt time.Time         `json:"submitted_at"`
	ApprovedAt  *time.Time        `json:"approved_at"`
	Reason      *string           `json:"reason"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   *time.Time        `json:"deleted_at,omitempty"`
	Category    *category.Summary `json:"category,omitempty"`
	User        *user.Summary     `json:"user,omitempty"`
}

func (r *Reimbursement) IsPending() bool {
	return r.Status == StatusPending
}

func (r *Reimbursement) IsOwnedBy(userID int64) bool {
	return r.UserID == userID
}

func (r *Reimbursement) IsTrashed() bool {
	return r.DeletedAt != nil
}

func newRow(userID int64, cat *category.Category, dto SubmitDTO, receiptPath string, now time.Time) *reimbursementDatamodel.Reimbursement {
	return &reimbursementDatamodel.Reimbursement{
		UserID:      userID,
		CategoryID:  cat.ID,
		Title:       dto.Title,
		Description: dto.Description,
		Amount:      dto.amount,
		Status:      string(StatusPending),
		ReceiptPath: receiptPath,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
		Category:    category.ToDataModel(cat),
	}
}

func FromDataModel(row *reimbursementDatamodel.Reimbursement) *Reimbursement {
	r := &Reimbursement{
		ID:          row.ID,
		UserID:      row.UserID,
		CategoryID:  row.CategoryID,
		Title:       row.Title,
		Description: row.Description,
		Amount:      row.Amount,
		Status:      Status(row.Status),
		ReceiptPath: row.ReceiptPath,
		SubmittedAt: row.SubmittedAt,
		ApprovedAt:  row.ApprovedAt,
		Reason:      row.Reason,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.DeletedAt.Valid {
		deletedAt := row.DeletedAt.Time
		r.DeletedAt = &deletedAt
	}
	if row.Category != nil {
		summary := categorySummary(row.Category)
		r.Category = &summary
	}
	if row.User != nil {
		r.User = &user.Summary{ID: row.User.ID, Name: row.User.Name, Email: row.User.Email}
	}
	return r
}

func categorySummary(c *categoryDatamodel.Category) category.Summary {
	return category.Summary{ID: c.ID, Name: c.Name, LimitPerMonth: c.LimitPerMonth}
}
