package postgres

import (
	"context"
	"errors"
	"time"

	activityDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/activity"
	reimbursementDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/reimbursement"
	"github.com/yusufwdn/reimverse/internal/reimbursement"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReimbursementRepository struct {
	db *gorm.DB
}

func NewReimbursementRepository(db *gorm.DB) *ReimbursementRepository {
	return &ReimbursementRepository{db: db}
}

// CreateWithActivity inserts the claim and its "created" log in one
// transaction. The log's reimbursement id is taken from the new row.
func (r *ReimbursementRepository) CreateWithActivity(ctx context.Context, row *reimbursementDatamodel.Reimbursement, log *activityDatamodel.ActivityLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
			return err
		}
		log.ReimbursementID = row.ID
		return tx.Create(log).Error
	})
}

func (r *ReimbursementRepository) GetByID(ctx context.Context, id int64, withTrashed bool) (*reimbursementDatamodel.Reimbursement, error) {
	q := r.db.WithContext(ctx)
	if withTrashed {
		q = q.Unscoped()
	}

	var row reimbursementDatamodel.Reimbursement
	err := q.Preload("Category").Preload("User").Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *ReimbursementRepository) Exists(ctx context.Context, id int64, withTrashed bool) (bool, error) {
	q := r.db.WithContext(ctx)
	if withTrashed {
		q = q.Unscoped()
	}

	var count int64
	err := q.Model(&reimbursementDatamodel.Reimbursement{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *ReimbursementRepository) filtered(ctx context.Context, f reimbursement.ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&reimbursementDatamodel.Reimbursement{})
	if f.WithTrashed {
		q = q.Unscoped()
	}
	if f.OwnerID > 0 {
		q = q.Where("user_id = ?", f.OwnerID)
	}
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.CategoryID > 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", f.To.UTC())
	}
	return q
}

// List returns one page of claims, newest first, and the total number of
// matches across all pages.
func (r *ReimbursementRepository) List(ctx context.Context, f reimbursement.ListFilter) ([]*reimbursementDatamodel.Reimbursement, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.filtered(ctx, f).
		Preload("Category").
		Preload("User").
		Order("created_at DESC").
		Order("id DESC")
	if f.Page.PerPage > 0 {
		q = q.Limit(f.Page.PerPage).Offset(f.Page.Offset())
	}

	var rows []*reimbursementDatamodel.Reimbursement
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SumMonthlySpend totals the pending and approved claims of one user in one
// category created between from and to inclusive. Soft-deleted rows are
// excluded by the default scope. Bounds are compared in UTC, the zone claims
// are written in.
func (r *ReimbursementRepository) SumMonthlySpend(ctx context.Context, userID, categoryID int64, from, to time.Time) (decimal.Decimal, error) {
	var counted []string
	for _, s := range reimbursement.AllStatuses {
		if s.CountsTowardLimit() {
			counted = append(counted, string(s))
		}
	}

	var spent decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&reimbursementDatamodel.Reimbursement{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Where("status IN ?", counted).
		Where("created_at BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Row().
		Scan(&spent)
	if err != nil {
		return decimal.Zero, err
	}
	return spent, nil
}

// TransitionStatus is a compare-and-set on status. Of two concurrent deciders
// only one sees a row affected; the other gets false and writes no log.
func (r *ReimbursementRepository) TransitionStatus(ctx context.Context, id int64, from reimbursement.Status, updates map[string]interface{}, log *activityDatamodel.ActivityLog) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&reimbursementDatamodel.Reimbursement{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return tx.Create(log).Error
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *ReimbursementRepository) SoftDeleteWithActivity(ctx context.Context, id int64, log *activityDatamodel.ActivityLog) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&reimbursementDatamodel.Reimbursement{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Create(log).Error
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
