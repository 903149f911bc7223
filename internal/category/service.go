package category

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yusufwdn/reimverse/internal"
	categoryDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/category"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*categoryDatamodel.Category, error)
	GetByID(ctx context.Context, id int64) (*categoryDatamodel.Category, error)
	Create(ctx context.Context, category *categoryDatamodel.Category) error
	Update(ctx context.Context, category *categoryDatamodel.Category) error
	Delete(ctx context.Context, id int64) error
	CountReimbursements(ctx context.Context, id int64) (int64, error)
}

var (
	ErrCategoryNotFound = internal.NewNotFoundError("Category not found.", internal.ErrCodeRecordNotFound)
	ErrCategoryInUse    = internal.NewBusinessRuleError("Category is used by existing reimbursements and cannot be deleted.", internal.ErrCodeCategoryInUse)
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAll(ctx context.Context) ([]*Category, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, err
	}

	categories := make([]*Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, FromDataModel(row))
	}
	return categories, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Category, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	if row == nil {
		return nil, ErrCategoryNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, req CategoryRequest) (*Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	row := ToDataModel(NewCategory(strings.TrimSpace(req.Name), req.LimitPerMonth.Round(2)))
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.Info("category created", "category_id", row.ID, "limit_per_month", row.LimitPerMonth.String())
	return FromDataModel(row), nil
}

// Update replaces name and limit. Lowering a limit never touches existing
// claims; it only affects later submissions.
func (s *Service) Update(ctx context.Context, id int64, req CategoryRequest) (*Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	if row == nil {
		return nil, ErrCategoryNotFound
	}

	row.Name = strings.TrimSpace(req.Name)
	row.LimitPerMonth = req.LimitPerMonth.Round(2)
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, fmt.Errorf("update category %d: %w", id, err)
	}

	s.logger.Info("category updated", "category_id", row.ID, "limit_per_month", row.LimitPerMonth.String())
	return FromDataModel(row), nil
}

// Delete removes a category that no reimbursement, trashed or not, points at.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	refs, err := s.repo.CountReimbursements(ctx, id)
	if err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		s.logger.Warn("category delete refused", "category_id", id, "reimbursements", refs)
		return ErrCategoryInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	s.logger.Info("category deleted", "category_id", id)
	return nil
}
