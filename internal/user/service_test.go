package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/auth"
	userDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/user"
	"github.com/yusufwdn/reimverse/internal/user"
	"github.com/yusufwdn/reimverse/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

type MockRepository struct {
	users      []*userDatamodel.User
	shouldFail bool
	failError  error
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.shouldFail {
		return false, m.failError
	}
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockRepository) ListByRoles(ctx context.Context, roles []string) ([]*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var out []*userDatamodel.User
	for _, u := range m.users {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (m *MockRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if m.shouldFail {
		return m.failError
	}
	u.ID = int64(len(m.users) + 1)
	m.users = append(m.users, u)
	return nil
}

var _ = Describe("User Service", func() {
	var (
		mockRepo *MockRepository
		service  *user.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockRepo = &MockRepository{}
		service = user.NewService(mockRepo, bcrypt.MinCost, logger.Discard())

		for _, u := range []*userDatamodel.User{
			{Name: "Admin", Email: "admin@example.com", Role: "admin"},
			{Name: "Manager", Email: "manager@example.com", Role: "manager"},
			{Name: "Employee", Email: "employee@example.com", Role: "employee"},
		} {
			Expect(mockRepo.Create(ctx, u)).To(Succeed())
		}
	})

	Describe("GetByID", func() {
		It("should map the row to the domain user", func() {
			u, err := service.GetByID(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("manager@example.com"))
			Expect(u.Role).To(Equal(auth.RoleManager))
			Expect(u.IsManager()).To(BeTrue())
			Expect(u.IsAdmin()).To(BeFalse())
		})

		It("should report missing users as not found", func() {
			_, err := service.GetByID(ctx, 99)
			Expect(err).To(Equal(internal.ErrRecordNotFound))
		})

		It("should wrap repository failures", func() {
			mockRepo.shouldFail = true
			mockRepo.failError = errors.New("connection reset")

			_, err := service.GetByID(ctx, 1)
			Expect(err).To(MatchError(ContainSubstring("connection reset")))
		})
	})

	Describe("ListByRole", func() {
		It("should return managers and admins for decision notifications", func() {
			users, err := service.ListByRole(ctx, auth.RoleManager, auth.RoleAdmin)
			Expect(err).NotTo(HaveOccurred())

			emails := make([]string, len(users))
			for i, u := range users {
				emails[i] = u.Email
			}
			Expect(emails).To(ConsistOf("admin@example.com", "manager@example.com"))
		})
	})

	Describe("Create", func() {
		It("should provision a manager with a hashed password", func() {
			u, err := service.Create(ctx, user.CreateUserDTO{
				Name:     "  Second Manager ",
				Email:    "Second.Manager@Example.com",
				Password: "password123",
				Role:     "Manager",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Name).To(Equal("Second Manager"))
			Expect(u.Email).To(Equal("second.manager@example.com"))
			Expect(u.Role).To(Equal(auth.RoleManager))
			Expect(auth.VerifyPassword(u.PasswordHash, "password123")).To(Succeed())
		})

		It("should reject unknown roles", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{
				Name:     "Root",
				Email:    "root@example.com",
				Password: "password123",
				Role:     "superuser",
			})
			Expect(err).To(MatchError("The selected role is invalid."))
		})

		It("should reject a taken email", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{
				Name:     "Copy",
				Email:    "admin@example.com",
				Password: "password123",
				Role:     "admin",
			})
			Expect(errors.Is(err, internal.ErrEmailTaken)).To(BeTrue())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details.(internal.ValidationErrors).Errors[0].Code).To(Equal(string(internal.ErrCodeEmailTaken)))
		})
	})
})
