package rest

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/yusufwdn/reimverse/internal/activity"
	"github.com/yusufwdn/reimverse/internal/auth"
	"github.com/yusufwdn/reimverse/internal/category"
	"github.com/yusufwdn/reimverse/internal/notification"
	"github.com/yusufwdn/reimverse/internal/reimbursement"
	"github.com/yusufwdn/reimverse/internal/transport/middleware"
	"github.com/yusufwdn/reimverse/internal/transport/swagger"
	"github.com/yusufwdn/reimverse/internal/user"
)

const APIPrefix = "/api/v1"

// Handlers groups the HTTP handlers of every module. RBAC and Auth are
// required; any other nil handler leaves its routes unregistered.
type Handlers struct {
	Auth          *auth.Handler
	RBAC          *auth.RBACAuthorization
	User          *user.Handler
	Category      *category.Handler
	Reimbursement *reimbursement.Handler
	Activity      *activity.Handler
	Notification  *notification.Handler
}

func RegisterAllRoutes(router chi.Router, db *sqlx.DB, storageRoot string, h Handlers) {
	health := NewHealthHandler(db)
	rbac := h.RBAC

	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)

	router.Get(swagger.DocumentPath, swagger.DocumentHandler)
	router.Handle("/swagger/*", swagger.Handler())
	if storageRoot != "" {
		router.Handle("/storage/*", http.StripPrefix("/storage/", StorageHandler(storageRoot)))
	}

	router.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health", health.Health)
		r.Get("/ping", health.Ping)

		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(rbac.RequireAnyRole())

			pr.Post("/logout", h.Auth.Logout)
			if h.User != nil {
				pr.Get("/me", h.User.GetCurrentUser)
			}
			if h.Category != nil {
				pr.Get("/categories", h.Category.GetCategories)
			}
			if h.Notification != nil {
				pr.Get("/notifications", h.Notification.GetNotifications)
				pr.Post("/notifications/{id}/read", h.Notification.MarkAsRead)
			}

			if h.Reimbursement != nil {
				pr.Route("/reimbursements", func(rr chi.Router) {
					rr.Get("/", h.Reimbursement.GetReimbursements)
					rr.Post("/", h.Reimbursement.CreateReimbursement)
					rr.Get("/{id}", h.Reimbursement.GetReimbursement)
					rr.Delete("/{id}", h.Reimbursement.DeleteReimbursement)
				})

				pr.Route("/manager/reimbursements", func(mr chi.Router) {
					mr.Use(rbac.RequireManager())
					mr.Get("/", h.Reimbursement.GetQueue)
					mr.Post("/{id}/approve", h.Reimbursement.ApproveReimbursement)
					mr.Post("/{id}/reject", h.Reimbursement.RejectReimbursement)
				})
			}

			pr.Route("/admin", func(ar chi.Router) {
				ar.Use(rbac.RequireAdmin())

				if h.Category != nil {
					ar.Get("/categories", h.Category.GetCategories)
					ar.Post("/categories", h.Category.CreateCategory)
					ar.Get("/categories/{id}", h.Category.GetCategory)
					ar.Put("/categories/{id}", h.Category.UpdateCategory)
					ar.Delete("/categories/{id}", h.Category.DeleteCategory)
				}
				if h.Reimbursement != nil {
					ar.Get("/reimbursements", h.Reimbursement.GetAuditList)
					ar.Get("/reimbursements/{id}", h.Reimbursement.GetAuditEntry)
				}
				if h.Activity != nil {
					ar.Get("/reimbursements/{id}/activities", h.Activity.GetHistory)
				}
			})
		})
	})
}

// StorageHandler serves stored receipt files. Directory listings and dot
// files are answered with 404.
func StorageHandler(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if name == "" || strings.HasSuffix(name, "/") || strings.Contains(name, "/.") || strings.HasPrefix(name, ".") {
			http.NotFound(w, r)
			return
		}
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(path.Clean("/"+name))))
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
