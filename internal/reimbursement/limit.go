package reimbursement

import (
	"context"
	"fmt"
	"time"

	"github.com/yusufwdn/reimverse/internal/category"
	"github.com/shopspring/decimal"
)

type SpendReader interface {
	SumMonthlySpend(ctx context.Context, userID, categoryID int64, from, to time.Time) (decimal.Decimal, error)
}

// MonthWindow returns the first and last instant of the calendar month that
// contains now, in loc.
func MonthWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// LimitChecker enforces the per-user, per-category monthly ceiling. Pending
// and approved claims created inside the current month count; rejected and
// soft-deleted ones do not.
type LimitChecker struct {
	spend SpendReader
	loc   *time.Location
}

func NewLimitChecker(spend SpendReader, loc *time.Location) *LimitChecker {
	if loc == nil {
		loc = time.Local
	}
	return &LimitChecker{spend: spend, loc: loc}
}

// Check returns ErrMonthlyLimitExceeded with limit, spent and remaining when
// amount does not fit.
func (c *LimitChecker) Check(ctx context.Context, now time.Time, userID int64, cat *category.Category, amount decimal.Decimal) error {
	from, to := MonthWindow(now, c.loc)

	spent, err := c.spend.SumMonthlySpend(ctx, userID, cat.ID, from, to)
	if err != nil {
		return fmt.Errorf("sum monthly spend: %w", err)
	}

	if cat.Allows(spent, amount) {
		return nil
	}
	return ErrMonthlyLimitExceeded.WithDetails(map[string]interface{}{
		"limit":     cat.LimitPerMonth,
		"spent":     spent,
		"remaining": cat.Remaining(spent),
	})
}
