package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/category"
	categoryPostgres "github.com/yusufwdn/reimverse/internal/category/postgres"
	"github.com/yusufwdn/reimverse/internal/user"
	userPostgres "github.com/yusufwdn/reimverse/internal/user/postgres"
)

var clearData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed demo accounts (password "password") and the default categories. Existing rows are kept.`,
	Run: func(cmd *cobra.Command, args []string) {
		deps, err := initializeDependencies()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
			os.Exit(1)
		}
		defer deps.Close()

		ctx := context.Background()
		if clearData {
			deps.Logger.Warn("clearing existing data before seeding")
			if _, err := deps.DB.ExecContext(ctx, clearDataQuery); err != nil {
				deps.Logger.Error("failed to clear data", "error", err)
				os.Exit(1)
			}
		}

		users := user.NewService(userPostgres.NewUserRepository(deps.Gorm), deps.Config.Security.BCryptCost, deps.Logger)
		categories := category.NewService(categoryPostgres.NewCategoryRepository(deps.Gorm), deps.Logger)
		if err := seed(ctx, users, categories, deps.Logger); err != nil {
			deps.Logger.Error("seeding failed", "error", err)
			os.Exit(1)
		}
	},
}

// TRUNCATE skips the row-level trigger that keeps activity_logs append-only.
const clearDataQuery = `TRUNCATE notifications, activity_logs, reimbursements, categories, revoked_tokens, users RESTART IDENTITY CASCADE`

const seedPassword = "password"

var seedUsers = []user.CreateUserDTO{
	{Name: "Admin User", Email: "admin@example.com", Password: seedPassword, Role: "admin"},
	{Name: "Manager User", Email: "manager@example.com", Password: seedPassword, Role: "manager"},
	{Name: "Employee User", Email: "employee@example.com", Password: seedPassword, Role: "employee"},
}

var seedCategories = []struct {
	Name  string
	Limit int64
}{
	{"Transportasi", 500000},
	{"Kesehatan", 1000000},
	{"Makan", 300000},
}

type userCreator interface {
	Create(ctx context.Context, dto user.CreateUserDTO) (*user.User, error)
}

type categoryStore interface {
	GetAll(ctx context.Context) ([]*category.Category, error)
	Create(ctx context.Context, req category.CategoryRequest) (*category.Category, error)
}

func seed(ctx context.Context, users userCreator, categories categoryStore, lg *slog.Logger) error {
	for _, dto := range seedUsers {
		u, err := users.Create(ctx, dto)
		if errors.Is(err, internal.ErrEmailTaken) {
			lg.Info("user already exists", "email", dto.Email)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", dto.Email, err)
		}
		lg.Info("seeded user", "email", u.Email, "role", u.Role)
	}

	existing, err := categories.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	names := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		names[c.Name] = struct{}{}
	}

	for _, c := range seedCategories {
		if _, ok := names[c.Name]; ok {
			lg.Info("category already exists", "name", c.Name)
			continue
		}
		limit := decimal.NewFromInt(c.Limit)
		created, err := categories.Create(ctx, category.CategoryRequest{Name: c.Name, LimitPerMonth: &limit})
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
		lg.Info("seeded category", "name", created.Name, "limit_per_month", created.LimitPerMonth.String())
	}
	return nil
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}
