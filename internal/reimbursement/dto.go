package reimbursement

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/core/common/validation"
	"github.com/yusufwdn/reimverse/internal/receipt"
	"github.com/yusufwdn/reimverse/internal/transport"
	"github.com/shopspring/decimal"
)

// MaxAmount is the largest value a numeric(14,2) column holds.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// SubmitDTO carries the multipart fields of a new claim. CategoryID is -1
// when the submitted value was not an integer.
type SubmitDTO struct {
	CategoryID  int64
	Title       string
	Description *string
	Amount      string
	Receipt     *receipt.Upload

	amount decimal.Decimal
}

func (d *SubmitDTO) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Amount = strings.TrimSpace(d.Amount)
	if d.Description != nil && strings.TrimSpace(*d.Description) == "" {
		d.Description = nil
	}
}

// Validate checks every field and, on success, fixes the parsed amount.
func (d *SubmitDTO) Validate(maxReceiptBytes int64) *internal.AppError {
	v := validation.NewValidator()
	v.Field("category_id", d.CategoryID).Required().PositiveID(internal.ErrCodeInvalidCategory)
	v.Field("title", d.Title).Required().MaxLength(255)
	v.Field("amount", d.Amount).
		Required().
		Decimal(internal.ErrCodeInvalidAmount).
		MinDecimal(decimal.Zero, internal.ErrCodeInvalidAmount).
		MaxDecimal(MaxAmount, internal.ErrCodeInvalidAmount)
	v.Field("receipt", d.Receipt).Custom(func(interface{}) *internal.AppError {
		if err := receipt.Validate(d.Receipt, maxReceiptBytes); err != nil {
			return err
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		return err
	}

	d.amount = decimal.RequireFromString(d.Amount).Round(2)
	return nil
}

type RejectDTO struct {
	Reason string `json:"reason"`
}

func (d RejectDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("reason", strings.TrimSpace(d.Reason)).Required()
	return v.Validate()
}

// ListFilter narrows listings. Zero values mean "no filter"; From and To bound
// created_at inclusively.
type ListFilter struct {
	OwnerID     int64
	Status      Status
	UserID      int64
	CategoryID  int64
	From        *time.Time
	To          *time.Time
	WithTrashed bool
	Page        transport.Pagination
}

const dateLayout = "2006-01-02"

// ParseStatusFilter reads the optional status query parameter.
func ParseStatusFilter(q url.Values) (Status, *internal.AppError) {
	status := strings.TrimSpace(q.Get("status"))
	v := validation.NewValidator()
	v.Field("status", status).In(statusNames()...)
	if err := v.Validate(); err != nil {
		return "", err
	}
	return Status(status), nil
}

// ParseAdminFilter reads the audit listing filters. Dates are calendar days
// in loc; to_date covers the whole day.
func ParseAdminFilter(q url.Values, loc *time.Location) (ListFilter, *internal.AppError) {
	var f ListFilter

	status, err := ParseStatusFilter(q)
	if err != nil {
		return f, err
	}
	f.Status = status

	v := validation.NewValidator()
	f.UserID = parseOptionalID(q.Get("user_id"))
	f.CategoryID = parseOptionalID(q.Get("category_id"))
	v.Field("user_id", f.UserID).PositiveID(internal.ErrCodeValidationFailed)
	v.Field("category_id", f.CategoryID).PositiveID(internal.ErrCodeInvalidCategory)

	from, fromOK := parseDate(q.Get("from_date"), loc)
	to, toOK := parseDate(q.Get("to_date"), loc)
	v.Field("from_date", q.Get("from_date")).Custom(dateRule("from_date", fromOK))
	v.Field("to_date", q.Get("to_date")).Custom(dateRule("to_date", toOK))
	if from != nil && to != nil {
		v.Field("from_date", *from).NotAfter(*to)
	}
	if err := v.Validate(); err != nil {
		return f, err
	}

	f.From = from
	if to != nil {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.To = &end
	}
	f.WithTrashed = parseBool(q.Get("with_trashed"))
	return f, nil
}

func statusNames() []string {
	names := make([]string, 0, len(AllStatuses))
	for _, s := range AllStatuses {
		names = append(names, string(s))
	}
	return names
}

func parseOptionalID(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return -1
	}
	return id
}

func parseDate(raw string, loc *time.Location) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func dateRule(field string, ok bool) func(interface{}) *internal.AppError {
	return func(interface{}) *internal.AppError {
		if ok {
			return nil
		}
		label := strings.ReplaceAll(field, "_", " ")
		return internal.NewValidationFieldError(field, "The "+label+" field must match the format Y-m-d.", internal.ErrCodeInvalidDate)
	}
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
