package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/yusufwdn/reimverse/internal/auth"
	userDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/user"
	"github.com/yusufwdn/reimverse/internal/transport"
	"github.com/yusufwdn/reimverse/internal/user"
	"github.com/yusufwdn/reimverse/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("User Handler", func() {
	var handler *user.Handler

	BeforeEach(func() {
		repo := &MockRepository{}
		Expect(repo.Create(context.Background(), &userDatamodel.User{
			Name: "Employee", Email: "employee@example.com", Role: "employee", PasswordHash: "secret-hash",
		})).To(Succeed())

		base := transport.NewBaseHandler(logger.Discard())
		handler = user.NewHandler(base, user.NewService(repo, 4, logger.Discard()))
	})

	It("should return the authenticated user without the password hash", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req = req.WithContext(auth.ContextWithActor(req.Context(), auth.Actor{ID: 1, Role: auth.RoleEmployee}))
		w := httptest.NewRecorder()

		handler.GetCurrentUser(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body["email"]).To(Equal("employee@example.com"))
		Expect(body["role"]).To(Equal("employee"))
		Expect(body).NotTo(HaveKey("password_hash"))
		Expect(body).NotTo(HaveKey("PasswordHash"))
	})

	It("should answer 401 when no actor is present", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		w := httptest.NewRecorder()

		handler.GetCurrentUser(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
