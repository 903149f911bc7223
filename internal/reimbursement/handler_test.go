package reimbursement_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/auth"
	"github.com/yusufwdn/reimverse/internal/category"
	categoryPostgres "github.com/yusufwdn/reimverse/internal/category/postgres"
	categoryDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/category"
	"github.com/yusufwdn/reimverse/internal/core/testdb"
	"github.com/yusufwdn/reimverse/internal/receipt"
	"github.com/yusufwdn/reimverse/internal/reimbursement"
	reimbursementPostgres "github.com/yusufwdn/reimverse/internal/reimbursement/postgres"
	"github.com/yusufwdn/reimverse/internal/transport"
	"github.com/yusufwdn/reimverse/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

// actorHeader stands in for the bearer token middleware: its value is
// "<id>:<role>".
const actorHeader = "X-Test-Actor"

func withTestActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(actorHeader); raw != "" {
			parts := strings.SplitN(raw, ":", 2)
			id, _ := strconv.ParseInt(parts[0], 10, 64)
			actor := auth.Actor{ID: id, Name: "User " + parts[0], Role: auth.Role(parts[1])}
			r = r.WithContext(auth.ContextWithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

type formFile struct {
	name string
	data []byte
}

func multipartBody(fields map[string]string, file *formFile) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		Expect(mw.WriteField(k, v)).To(Succeed())
	}
	if file != nil {
		part, err := mw.CreateFormFile("receipt", file.name)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(file.data)
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(mw.Close()).To(Succeed())
	return body, mw.FormDataContentType()
}

var _ = Describe("Reimbursement Handler Integration", func() {
	var (
		router    chi.Router
		storeRoot string
		publisher *MockPublisher
	)

	BeforeEach(func() {
		db, err := testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		categoryRepo := categoryPostgres.NewCategoryRepository(db)
		Expect(categoryRepo.Create(context.Background(), &categoryDatamodel.Category{
			Name: "Makan", LimitPerMonth: decimal.NewFromInt(300000),
		})).To(Succeed())
		categories := category.NewService(categoryRepo, logger.Discard())

		storeRoot = GinkgoT().TempDir()
		store := receipt.NewLocalStore(storeRoot, "http://localhost:8080", 1600, logger.Discard())
		publisher = &MockPublisher{}

		service := reimbursement.NewService(
			reimbursementPostgres.NewReimbursementRepository(db),
			categories, store, publisher,
			reimbursement.Config{MaxReceiptBytes: internal.DefaultMaxReceiptBytes, Location: time.UTC},
			logger.Discard())
		handler := reimbursement.NewHandler(transport.NewBaseHandler(logger.Discard()), service, internal.DefaultMaxReceiptBytes, time.UTC)

		router = chi.NewRouter()
		router.Use(withTestActor)
		router.Get("/reimbursements", handler.GetReimbursements)
		router.Post("/reimbursements", handler.CreateReimbursement)
		router.Get("/reimbursements/{id}", handler.GetReimbursement)
		router.Delete("/reimbursements/{id}", handler.DeleteReimbursement)
		router.Get("/manager/reimbursements", handler.GetQueue)
		router.Post("/manager/reimbursements/{id}/approve", handler.ApproveReimbursement)
		router.Post("/manager/reimbursements/{id}/reject", handler.RejectReimbursement)
		router.Get("/admin/reimbursements", handler.GetAuditList)
		router.Get("/admin/reimbursements/{id}", handler.GetAuditEntry)
	})

	send := func(req *http.Request, actor string) *httptest.ResponseRecorder {
		if actor != "" {
			req.Header.Set(actorHeader, actor)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	submit := func(actor, amount string) *httptest.ResponseRecorder {
		body, contentType := multipartBody(map[string]string{
			"category_id": "1",
			"title":       "Client lunch",
			"description": "Team meeting",
			"amount":      amount,
		}, &formFile{name: "lunch.pdf", data: pdfBytes})
		req := httptest.NewRequest(http.MethodPost, "/reimbursements", body)
		req.Header.Set("Content-Type", contentType)
		return send(req, actor)
	}

	decode := func(w *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body
	}

	It("creates a claim from a multipart form and stores the receipt", func() {
		w := submit("10:employee", "50000")

		Expect(w.Code).To(Equal(http.StatusCreated))
		var envelope reimbursement.Envelope
		Expect(json.NewDecoder(w.Body).Decode(&envelope)).To(Succeed())
		Expect(envelope.Message).To(Equal("Reimbursement created successfully"))
		Expect(envelope.Reimbursement.Status).To(Equal(reimbursement.StatusPending))
		Expect(*envelope.Reimbursement.Description).To(Equal("Team meeting"))
		Expect(envelope.Reimbursement.Category.Name).To(Equal("Makan"))
		Expect(envelope.Reimbursement.ReceiptURL).To(HavePrefix("http://localhost:8080/storage/receipts/"))

		_, err := os.Stat(filepath.Join(storeRoot, filepath.FromSlash(envelope.Reimbursement.ReceiptPath)))
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher.events).To(HaveLen(1))
	})

	It("reports every missing field of an empty form", func() {
		body, contentType := multipartBody(map[string]string{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/reimbursements", body)
		req.Header.Set("Content-Type", contentType)

		w := send(req, "10:employee")

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		errs := decode(w)["errors"].(map[string]interface{})
		Expect(errs).To(HaveKey("category_id"))
		Expect(errs).To(HaveKey("title"))
		Expect(errs).To(HaveKey("amount"))
		Expect(errs).To(HaveKey("receipt"))
	})

	It("treats a JSON body as an empty form", func() {
		req := httptest.NewRequest(http.MethodPost, "/reimbursements", strings.NewReader(`{"title":"x"}`))
		req.Header.Set("Content-Type", "application/json")

		w := send(req, "10:employee")

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(decode(w)["errors"]).To(HaveKey("receipt"))
	})

	It("refuses receipts of other types", func() {
		body, contentType := multipartBody(map[string]string{
			"category_id": "1", "title": "Lunch", "amount": "1000",
		}, &formFile{name: "notes.txt", data: []byte("hello")})
		req := httptest.NewRequest(http.MethodPost, "/reimbursements", body)
		req.Header.Set("Content-Type", contentType)

		w := send(req, "10:employee")

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		errs := decode(w)["errors"].(map[string]interface{})
		Expect(errs["receipt"]).To(ConsistOf("The receipt field must be a file of type: pdf, jpg, jpeg, png."))
	})

	It("reports the monthly limit breakdown", func() {
		Expect(submit("10:employee", "250000").Code).To(Equal(http.StatusCreated))

		w := submit("10:employee", "50001")

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		body := decode(w)
		Expect(body["message"]).To(Equal("Monthly limit exceeded for this category"))
		Expect(body["limit"]).To(Equal("300000"))
		Expect(body["spent"]).To(Equal("250000"))
		Expect(body["remaining"]).To(Equal("50000"))
	})

	It("hides claims from other employees", func() {
		Expect(submit("10:employee", "1000").Code).To(Equal(http.StatusCreated))

		w := send(httptest.NewRequest(http.MethodGet, "/reimbursements/1", nil), "11:employee")
		Expect(w.Code).To(Equal(http.StatusNotFound))

		w = send(httptest.NewRequest(http.MethodDelete, "/reimbursements/1", nil), "11:employee")
		Expect(w.Code).To(Equal(http.StatusNotFound))

		w = send(httptest.NewRequest(http.MethodGet, "/reimbursements/1", nil), "10:employee")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["message"]).To(Equal("Get Reimbursement by ID"))
	})

	It("lets only the first of two managers decide", func() {
		Expect(submit("10:employee", "1000").Code).To(Equal(http.StatusCreated))

		w := send(httptest.NewRequest(http.MethodPost, "/manager/reimbursements/1/approve", nil), "20:manager")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["message"]).To(Equal("Reimbursement approved successfully"))

		req := httptest.NewRequest(http.MethodPost, "/manager/reimbursements/1/reject", strings.NewReader(`{"reason":"duplicate"}`))
		req.Header.Set("Content-Type", "application/json")
		w = send(req, "21:manager")
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(decode(w)["message"]).To(Equal("Only pending reimbursements can be rejected"))
	})

	It("requires a reason to reject, from a form too", func() {
		Expect(submit("10:employee", "1000").Code).To(Equal(http.StatusCreated))

		req := httptest.NewRequest(http.MethodPost, "/manager/reimbursements/1/reject", strings.NewReader("reason="))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := send(req, "20:manager")

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(decode(w)["errors"]).To(HaveKey("reason"))
	})

	It("shows soft-deleted claims to the audit view only", func() {
		Expect(submit("10:employee", "1000").Code).To(Equal(http.StatusCreated))
		Expect(submit("10:employee", "2000").Code).To(Equal(http.StatusCreated))

		w := send(httptest.NewRequest(http.MethodDelete, "/reimbursements/1", nil), "10:employee")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["message"]).To(Equal("Reimbursement deleted successfully"))

		w = send(httptest.NewRequest(http.MethodGet, "/manager/reimbursements", nil), "20:manager")
		Expect(decode(w)["total"]).To(BeEquivalentTo(1))

		w = send(httptest.NewRequest(http.MethodGet, "/admin/reimbursements?with_trashed=1", nil), "30:admin")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["total"]).To(BeEquivalentTo(2))

		w = send(httptest.NewRequest(http.MethodGet, "/admin/reimbursements/1", nil), "30:admin")
		Expect(w.Code).To(Equal(http.StatusOK))
		item := decode(w)["reimbursement"].(map[string]interface{})
		Expect(item["deleted_at"]).NotTo(BeNil())
	})

	It("validates admin filters", func() {
		w := send(httptest.NewRequest(http.MethodGet, "/admin/reimbursements?from_date=yesterday", nil), "30:admin")
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(decode(w)["errors"]).To(HaveKey("from_date"))
	})

	It("answers 401 without an actor", func() {
		w := send(httptest.NewRequest(http.MethodGet, "/reimbursements", nil), "")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
