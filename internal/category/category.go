package category

import (
	"time"

	categoryDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/category"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	LimitPerMonth decimal.Decimal `json:"limit_per_month"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Remaining is what is left of the monthly ceiling after spent. It goes
// negative when historical claims already exceed a lowered limit.
func (c *Category) Remaining(spent decimal.Decimal) decimal.Decimal {
	return c.LimitPerMonth.Sub(spent)
}

// Allows reports whether a claim of amount fits on top of spent.
func (c *Category) Allows(spent, amount decimal.Decimal) bool {
	return spent.Add(amount).LessThanOrEqual(c.LimitPerMonth)
}

func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		ID:            c.ID,
		Name:          c.Name,
		LimitPerMonth: c.LimitPerMonth,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (c *Category) Summary() Summary {
	return Summary{ID: c.ID, Name: c.Name, LimitPerMonth: c.LimitPerMonth}
}

func NewCategory(name string, limit decimal.Decimal) *Category {
	return &Category{
		Name:          name,
		LimitPerMonth: limit,
	}
}

func ToDataModel(c *Category) *categoryDatamodel.Category {
	return &categoryDatamodel.Category{
		ID:            c.ID,
		Name:          c.Name,
		LimitPerMonth: c.LimitPerMonth,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func FromDataModel(c *categoryDatamodel.Category) *Category {
	return &Category{
		ID:            c.ID,
		Name:          c.Name,
		LimitPerMonth: c.LimitPerMonth,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
