package reimbursement

import "github.com/yusufwdn/reimverse/internal"

var (
	ErrMonthlyLimitExceeded = internal.NewBusinessRuleError("Monthly limit exceeded for this category", internal.ErrCodeMonthlyLimitExceeded)
	ErrNotPendingApprove    = internal.NewBusinessRuleError("Only pending reimbursements can be approved", internal.ErrCodeNotPending)
	ErrNotPendingReject     = internal.NewBusinessRuleError("Only pending reimbursements can be rejected", internal.ErrCodeNotPending)
	ErrInvalidCategory      = internal.NewValidationFieldError("category_id", "The selected category id is invalid.", internal.ErrCodeInvalidCategory)
)
