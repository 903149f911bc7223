package postgres

import (
	"context"
	"errors"

	"github.com/yusufwdn/reimverse/internal/category"
	categoryDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/category"
	reimbursementDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/reimbursement"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) GetAll(ctx context.Context) ([]*categoryDatamodel.Category, error) {
	var categories []*categoryDatamodel.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*categoryDatamodel.Category, error) {
	var cat categoryDatamodel.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

func (r *CategoryRepository) Create(ctx context.Context, cat *categoryDatamodel.Category) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *CategoryRepository) Update(ctx context.Context, cat *categoryDatamodel.Category) error {
	return r.db.WithContext(ctx).Save(cat).Error
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&categoryDatamodel.Category{}, id).Error
}

// CountReimbursements includes soft-deleted claims so that admins can still
// audit them with their category attached.
func (r *CategoryRepository) CountReimbursements(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().
		Model(&reimbursementDatamodel.Reimbursement{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}
