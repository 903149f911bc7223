package category_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	"github.com/yusufwdn/reimverse/internal/category"
	categoryPostgres "github.com/yusufwdn/reimverse/internal/category/postgres"
	categoryDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/category"
	reimbursementDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/reimbursement"
	"github.com/yusufwdn/reimverse/internal/core/testdb"
	"github.com/yusufwdn/reimverse/internal/transport"
	"github.com/yusufwdn/reimverse/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var _ = Describe("Category Handler Integration", func() {
	var (
		db      *gorm.DB
		repo    category.RepositoryAPI
		handler *category.Handler
		router  chi.Router
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		repo = categoryPostgres.NewCategoryRepository(db)
		service := category.NewService(repo, logger.Discard())
		handler = category.NewHandler(transport.NewBaseHandler(logger.Discard()), service)

		router = chi.NewRouter()
		router.Get("/categories", handler.GetCategories)
		router.Post("/categories", handler.CreateCategory)
		router.Get("/categories/{id}", handler.GetCategory)
		router.Put("/categories/{id}", handler.UpdateCategory)
		router.Delete("/categories/{id}", handler.DeleteCategory)

		for _, c := range []*categoryDatamodel.Category{
			{Name: "Makan", LimitPerMonth: decimal.NewFromInt(300000)},
			{Name: "Transportasi", LimitPerMonth: decimal.NewFromInt(500000)},
		} {
			Expect(repo.Create(context.Background(), c)).To(Succeed())
		}
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("should handle GET /categories request successfully", func() {
		w := do(http.MethodGet, "/categories", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response category.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Categories).To(HaveLen(2))
		Expect(response.Categories[0].Name).To(Equal("Makan"))
		Expect(response.Categories[0].LimitPerMonth.String()).To(Equal("300000"))
	})

	It("should create a category from a numeric limit", func() {
		w := do(http.MethodPost, "/categories", `{"name":"Kesehatan","limit_per_month":1000000}`)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var response category.CategoryEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Category.ID).To(BeNumerically(">", 0))
		Expect(response.Message).To(Equal("Category created successfully"))
	})

	It("should report validation errors per field", func() {
		w := do(http.MethodPost, "/categories", `{"name":"","limit_per_month":"-5"}`)

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body["errors"]).To(HaveKey("name"))
		Expect(body["errors"]).To(HaveKey("limit_per_month"))
	})

	It("should update and show a category", func() {
		w := do(http.MethodPut, "/categories/1", `{"name":"Meals","limit_per_month":"250000.00"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, "/categories/1", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var response category.CategoryEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Category.Name).To(Equal("Meals"))
		Expect(response.Category.LimitPerMonth.Equal(decimal.NewFromInt(250000))).To(BeTrue())
	})

	It("should answer 404 for malformed and unknown ids", func() {
		Expect(do(http.MethodGet, "/categories/abc", "").Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodGet, "/categories/99", "").Code).To(Equal(http.StatusNotFound))
	})

	It("should refuse to delete a category referenced by a trashed reimbursement", func() {
		claim := &reimbursementDatamodel.Reimbursement{
			UserID: 1, CategoryID: 1, Title: "Lunch", Amount: decimal.NewFromInt(10),
			Status: "pending", ReceiptPath: "receipts/x.pdf",
		}
		Expect(db.Create(claim).Error).To(Succeed())
		Expect(db.Delete(claim).Error).To(Succeed())

		w := do(http.MethodDelete, "/categories/1", "")
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(w.Body.String()).To(ContainSubstring("CATEGORY_IN_USE"))

		Expect(do(http.MethodDelete, "/categories/2", "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/categories/2", "").Code).To(Equal(http.StatusNotFound))
	})
})
