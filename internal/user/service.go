package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/auth"
	userDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/user"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListByRoles(ctx context.Context, roles []string) ([]*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return nil, internal.ErrRecordNotFound
	}
	return FromDataModel(u), nil
}

// ListByRole returns every user holding one of roles, ordered by id.
func (s *Service) ListByRole(ctx context.Context, roles ...auth.Role) ([]*User, error) {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}

	rows, err := s.repo.ListByRoles(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

// Create provisions an account with an explicit role.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, dto.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, internal.ErrEmailTaken
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := &userDatamodel.User{
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		Role:         dto.Role,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user provisioned", "user_id", row.ID, "role", row.Role)
	return FromDataModel(row), nil
}
