package auth

import (
	"net/http"
	"net/http/httptest"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/yusufwdn/reimverse/internal/transport"
	"github.com/yusufwdn/reimverse/pkg/logger"
)

var _ = ginkgo.Describe("RBACAuthorization", func() {
	var (
		rbac *RBACAuthorization
		ok   http.Handler
	)

	ginkgo.BeforeEach(func() {
		lg := logger.Discard()
		rbac = NewRBACAuthorization(transport.NewBaseHandler(lg), lg)
		ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	serve := func(mw func(http.Handler) http.Handler, actor *Actor) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if actor != nil {
			req = req.WithContext(ContextWithActor(req.Context(), *actor))
		}
		w := httptest.NewRecorder()
		mw(ok).ServeHTTP(w, req)
		return w.Code
	}

	ginkgo.DescribeTable("RequireManager",
		func(role Role, expected int) {
			gomega.Expect(serve(rbac.RequireManager(), &Actor{ID: 1, Role: role})).To(gomega.Equal(expected))
		},
		ginkgo.Entry("employee is refused", RoleEmployee, http.StatusForbidden),
		ginkgo.Entry("manager passes", RoleManager, http.StatusNoContent),
		ginkgo.Entry("admin passes", RoleAdmin, http.StatusNoContent),
		ginkgo.Entry("unknown role is refused", Role("auditor"), http.StatusForbidden),
	)

	ginkgo.DescribeTable("RequireAdmin",
		func(role Role, expected int) {
			gomega.Expect(serve(rbac.RequireAdmin(), &Actor{ID: 1, Role: role})).To(gomega.Equal(expected))
		},
		ginkgo.Entry("employee is refused", RoleEmployee, http.StatusForbidden),
		ginkgo.Entry("manager is refused", RoleManager, http.StatusForbidden),
		ginkgo.Entry("admin passes", RoleAdmin, http.StatusNoContent),
	)

	ginkgo.It("answers 401 without an actor", func() {
		gomega.Expect(serve(rbac.RequireAnyRole(), nil)).To(gomega.Equal(http.StatusUnauthorized))
	})
})
