package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/user"
	userPostgres "github.com/yusufwdn/reimverse/internal/user/postgres"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Account administration",
}

var createUserInput user.CreateUserDTO

// Managers and admins can only be created here; the public register
// endpoint always makes employees.
var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account with any role",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		svc := user.NewService(userPostgres.NewUserRepository(deps.Gorm), deps.Config.Security.BCryptCost, deps.Logger)
		u, err := svc.Create(context.Background(), createUserInput)
		if err != nil {
			if appErr, ok := internal.IsAppError(err); ok {
				return fmt.Errorf("%s: %v", appErr.Message, appErr.Details)
			}
			return err
		}

		fmt.Fprintf(os.Stdout, "created %s user %d <%s>\n", u.Role, u.ID, u.Email)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&createUserInput.Name, "name", "", "display name")
	createUserCmd.Flags().StringVar(&createUserInput.Email, "email", "", "login email")
	createUserCmd.Flags().StringVar(&createUserInput.Password, "password", "", "initial password (min 8 characters)")
	createUserCmd.Flags().StringVar(&createUserInput.Role, "role", "employee", "employee, manager or admin")
	_ = createUserCmd.MarkFlagRequired("name")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	userCmd.AddCommand(createUserCmd)
}
