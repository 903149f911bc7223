package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/activity"
	activityPostgres "github.com/yusufwdn/reimverse/internal/activity/postgres"
	"github.com/yusufwdn/reimverse/internal/auth"
	authPostgres "github.com/yusufwdn/reimverse/internal/auth/postgres"
	"github.com/yusufwdn/reimverse/internal/category"
	categoryPostgres "github.com/yusufwdn/reimverse/internal/category/postgres"
	"github.com/yusufwdn/reimverse/internal/core/events"
	"github.com/yusufwdn/reimverse/internal/core/testdb"
	"github.com/yusufwdn/reimverse/internal/notification"
	notificationPostgres "github.com/yusufwdn/reimverse/internal/notification/postgres"
	"github.com/yusufwdn/reimverse/internal/receipt"
	"github.com/yusufwdn/reimverse/internal/reimbursement"
	reimbursementPostgres "github.com/yusufwdn/reimverse/internal/reimbursement/postgres"
	"github.com/yusufwdn/reimverse/internal/transport"
	"github.com/yusufwdn/reimverse/internal/transport/rest"
	"github.com/yusufwdn/reimverse/internal/transport/swagger"
	"github.com/yusufwdn/reimverse/internal/user"
	userPostgres "github.com/yusufwdn/reimverse/internal/user/postgres"
	"github.com/yusufwdn/reimverse/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type app struct {
	router    chi.Router
	bus       *events.EventBus
	pool      *notification.Pool
	storeRoot string
}

func newApp() *app {
	db, err := testdb.Open()
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlxDB := sqlx.NewDb(sqlDB, "sqlite3")

	lg := logger.Discard()
	base := transport.NewBaseHandler(lg)

	authService := auth.NewService(authPostgres.NewRepository(db), auth.NewJWTTokenGenerator(testSecret, time.Hour), bcrypt.MinCost, lg)
	userService := user.NewService(userPostgres.NewUserRepository(db), bcrypt.MinCost, lg)
	categoryService := category.NewService(categoryPostgres.NewCategoryRepository(db), lg)

	for _, dto := range []user.CreateUserDTO{
		{Name: "Maya Manager", Email: "manager@example.com", Password: "password", Role: "manager"},
		{Name: "Budi Manager", Email: "manager2@example.com", Password: "password", Role: "manager"},
		{Name: "Ada Admin", Email: "admin@example.com", Password: "password", Role: "admin"},
	} {
		_, err := userService.Create(context.Background(), dto)
		Expect(err).NotTo(HaveOccurred())
	}

	bus := events.NewEventBus(lg)
	notifications := notificationPostgres.NewNotificationRepository(db)
	deliverer := notification.NewDeliverer(notifications, notification.NewLogMailer(lg), lg)
	pool := notification.NewPool(notification.PoolConfig{MaxWorkers: 2, JobQueueSize: 20}, deliverer.Deliver, lg)
	notification.NewDispatcher(notification.NewNotifier(userService, "http://app.test"), pool, lg).Register(bus)

	storeRoot := GinkgoT().TempDir()
	store := receipt.NewLocalStore(storeRoot, "http://localhost:8080", 1600, lg)
	claims := reimbursementPostgres.NewReimbursementRepository(db)
	reimbursementService := reimbursement.NewService(claims, categoryService, store, bus,
		reimbursement.Config{MaxReceiptBytes: internal.DefaultMaxReceiptBytes, Location: time.UTC}, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, sqlxDB, storeRoot, rest.Handlers{
		Auth:          auth.NewHandler(base, authService),
		RBAC:          auth.NewRBACAuthorization(base, lg),
		User:          user.NewHandler(base, userService),
		Category:      category.NewHandler(base, categoryService),
		Reimbursement: reimbursement.NewHandler(base, reimbursementService, internal.DefaultMaxReceiptBytes, time.UTC),
		Activity:      activity.NewHandler(base, activity.NewService(activityPostgres.NewReader(sqlxDB), claims, lg)),
		Notification:  notification.NewHandler(base, notification.NewService(notifications, lg)),
	})

	return &app{router: router, bus: bus, pool: pool, storeRoot: storeRoot}
}

func (a *app) close() {
	a.bus.Wait()
	a.pool.Shutdown()
}

func (a *app) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, rest.APIPrefix+path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *app) json(method, path, token string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		Expect(err).NotTo(HaveOccurred())
		body = bytes.NewReader(b)
	}
	return a.do(method, path, token, body, "application/json")
}

func (a *app) login(email string) string {
	w := a.json(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "password"})
	Expect(w.Code).To(Equal(http.StatusOK), w.Body.String())
	var resp auth.LoginResponse
	Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
	return resp.Token
}

func (a *app) submit(token string, categoryID, amount string) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	Expect(mw.WriteField("title", "Team lunch")).To(Succeed())
	Expect(mw.WriteField("amount", amount)).To(Succeed())
	Expect(mw.WriteField("category_id", categoryID)).To(Succeed())
	part, err := mw.CreateFormFile("receipt", "lunch.pdf")
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write([]byte("%PDF-1.4\n%receipt\n"))
	Expect(err).NotTo(HaveOccurred())
	Expect(mw.Close()).To(Succeed())
	return a.do(http.MethodPost, "/reimbursements", token, body, mw.FormDataContentType())
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	Expect(json.Unmarshal(w.Body.Bytes(), &out)).To(Succeed(), w.Body.String())
	return out
}

var _ = Describe("Router", func() {
	var a *app

	BeforeEach(func() {
		a = newApp()
	})

	AfterEach(func() {
		a.close()
	})

	It("answers the probes without a token", func() {
		Expect(a.do(http.MethodGet, "/ping", "", nil, "").Code).To(Equal(http.StatusOK))

		w := a.do(http.MethodGet, "/health", "", nil, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["status"]).To(Equal("healthy"))
	})

	It("rejects protected routes without a token", func() {
		Expect(a.do(http.MethodGet, "/reimbursements", "", nil, "").Code).To(Equal(http.StatusUnauthorized))
		Expect(a.do(http.MethodGet, "/me", "", nil, "").Code).To(Equal(http.StatusUnauthorized))
	})

	It("never lets the public register endpoint mint privileged accounts", func() {
		w := a.json(http.MethodPost, "/register", "", map[string]string{
			"name": "Eve", "email": "eve@example.com",
			"password": "password", "password_confirmation": "password",
			"role": "admin",
		})
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
	})

	It("runs a claim from registration to approval and notifies both sides", func() {
		w := a.json(http.MethodPost, "/register", "", map[string]string{
			"name": "Erik Employee", "email": "erik@example.com",
			"password": "password", "password_confirmation": "password",
		})
		Expect(w.Code).To(Equal(http.StatusCreated), w.Body.String())

		employee := a.login("erik@example.com")
		manager := a.login("manager@example.com")
		admin := a.login("admin@example.com")

		By("an admin creating the category")
		Expect(a.json(http.MethodPost, "/admin/categories", employee, map[string]any{"name": "Makan", "limit_per_month": "300000"}).Code).
			To(Equal(http.StatusForbidden))
		w = a.json(http.MethodPost, "/admin/categories", admin, map[string]any{"name": "Makan", "limit_per_month": "300000"})
		Expect(w.Code).To(Equal(http.StatusCreated), w.Body.String())
		categoryID := decode(w)["category"].(map[string]any)["id"].(float64)
		catID := jsonNumber(categoryID)

		w = a.do(http.MethodGet, "/categories", employee, nil, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Makan"))

		By("the employee submitting within the limit")
		w = a.submit(employee, catID, "250000")
		Expect(w.Code).To(Equal(http.StatusCreated), w.Body.String())
		claim := decode(w)["reimbursement"].(map[string]any)
		claimID := jsonNumber(claim["id"].(float64))
		Expect(claim["status"]).To(Equal("pending"))

		By("the receipt being served from storage")
		receiptPath := claim["receipt_path"].(string)
		_, err := os.Stat(filepath.Join(a.storeRoot, filepath.FromSlash(receiptPath)))
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodGet, "/storage/"+receiptPath, nil)
		rec := httptest.NewRecorder()
		a.router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("%PDF"))

		By("a second claim breaking the monthly limit")
		w = a.submit(employee, catID, "50001")
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(w.Body.String()).To(ContainSubstring("remaining"))

		By("the employee being kept away from manager routes")
		Expect(a.do(http.MethodPost, "/manager/reimbursements/"+claimID+"/approve", employee, nil, "").Code).
			To(Equal(http.StatusForbidden))

		By("managers being notified of the submission")
		Eventually(func() int {
			a.bus.Wait()
			return len(notificationsOf(a, manager))
		}).Should(Equal(1))

		By("a manager approving it once")
		w = a.do(http.MethodPost, "/manager/reimbursements/"+claimID+"/approve", manager, nil, "")
		Expect(w.Code).To(Equal(http.StatusOK), w.Body.String())
		w = a.json(http.MethodPost, "/manager/reimbursements/"+claimID+"/reject", manager, map[string]string{"reason": "late"})
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(w.Body.String()).To(ContainSubstring("Only pending reimbursements can be rejected"))

		By("the owner hearing about the decision")
		var ownerNotifications []any
		Eventually(func() int {
			a.bus.Wait()
			ownerNotifications = notificationsOf(a, employee)
			return len(ownerNotifications)
		}).Should(Equal(1))
		id := ownerNotifications[0].(map[string]any)["id"].(string)
		Expect(a.do(http.MethodPost, "/notifications/"+id+"/read", employee, nil, "").Code).To(Equal(http.StatusOK))
		Expect(a.do(http.MethodPost, "/notifications/"+id+"/read", manager, nil, "").Code).To(Equal(http.StatusNotFound))

		By("an admin auditing the trail")
		w = a.do(http.MethodGet, "/admin/reimbursements/"+claimID+"/activities", admin, nil, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		activities := decode(w)["activities"].([]any)
		Expect(activities).To(HaveLen(2))
		Expect(activities[0].(map[string]any)["action"]).To(Equal("created"))
		Expect(activities[1].(map[string]any)["action"]).To(Equal("approved"))

		Expect(a.do(http.MethodGet, "/admin/reimbursements/"+claimID+"/activities", manager, nil, "").Code).
			To(Equal(http.StatusForbidden))
	})

	It("revokes only the token used to log out", func() {
		first := a.login("manager@example.com")
		second := a.login("manager@example.com")

		Expect(a.do(http.MethodPost, "/logout", first, nil, "").Code).To(Equal(http.StatusOK))
		Expect(a.do(http.MethodGet, "/me", first, nil, "").Code).To(Equal(http.StatusUnauthorized))
		Expect(a.do(http.MethodGet, "/me", second, nil, "").Code).To(Equal(http.StatusOK))
	})

	It("does not list storage directories", func() {
		Expect(os.MkdirAll(filepath.Join(a.storeRoot, receipt.Folder), 0o755)).To(Succeed())
		for _, p := range []string{"/storage/", "/storage/" + receipt.Folder, "/storage/" + receipt.Folder + "/"} {
			rec := httptest.NewRecorder()
			a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound), p)
		}
	})

	It("documents every API route in the OpenAPI document", func() {
		doc, err := swagger.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())

		err = chi.Walk(a.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, rest.APIPrefix) {
				return nil
			}
			p := strings.TrimSuffix(strings.TrimPrefix(route, rest.APIPrefix), "/")
			item := doc.Paths.Find(p)
			Expect(item).NotTo(BeNil(), "undocumented path %s", p)
			Expect(item.GetOperation(method)).NotTo(BeNil(), "undocumented operation %s %s", method, p)
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
	})
})

func notificationsOf(a *app, token string) []any {
	w := a.do(http.MethodGet, "/notifications", token, nil, "")
	Expect(w.Code).To(Equal(http.StatusOK))
	data, _ := decode(w)["data"].([]any)
	return data
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(int64(f))
	return string(b)
}
