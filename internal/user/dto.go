package user

import (
	"strings"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/auth"
	"github.com/yusufwdn/reimverse/internal/core/common/validation"
)

// CreateUserDTO provisions an account with any role. It is only reachable from
// the CLI and the seeder, never from the public register endpoint.
type CreateUserDTO struct {
	Name     string
	Email    string
	Password string
	Role     string
}

func (d *CreateUserDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Role = strings.ToLower(strings.TrimSpace(d.Role))
}

func (d CreateUserDTO) Validate() *internal.AppError {
	roles := make([]string, 0, len(auth.AllRoles))
	for _, r := range auth.AllRoles {
		roles = append(roles, string(r))
	}

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	v.Field("password", d.Password).Required().MinLength(8)
	v.Field("role", d.Role).Required().In(roles...)
	return v.Validate()
}

// Summary is the compact user shape embedded in other resources.
type Summary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
