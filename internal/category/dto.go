package category

import (
	"strings"
	"time"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

// CategoryRequest is the body of create and update. limit_per_month accepts a
// JSON number or a numeric string.
type CategoryRequest struct {
	Name          string           `json:"name"`
	LimitPerMonth *decimal.Decimal `json:"limit_per_month"`
}

func (r CategoryRequest) Validate() *internal.AppError {
	limit := ""
	if r.LimitPerMonth != nil {
		limit = r.LimitPerMonth.String()
	}

	v := validation.NewValidator()
	v.Field("name", strings.TrimSpace(r.Name)).Required().MaxLength(255)
	v.Field("limit_per_month", limit).
		Required().
		Decimal(internal.ErrCodeInvalidAmount).
		MinDecimal(decimal.Zero, internal.ErrCodeInvalidAmount).
		MaxDecimal(MaxLimit, internal.ErrCodeInvalidAmount)
	return v.Validate()
}

// MaxLimit is the largest value a numeric(14,2) column holds.
var MaxLimit = decimal.RequireFromString("999999999999.99")

type CategoryResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	LimitPerMonth decimal.Decimal `json:"limit_per_month"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

type CategoryEnvelope struct {
	Message  string           `json:"message,omitempty"`
	Category CategoryResponse `json:"category"`
}

// Summary is the compact category shape embedded in reimbursements.
type Summary struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	LimitPerMonth decimal.Decimal `json:"limit_per_month"`
}
