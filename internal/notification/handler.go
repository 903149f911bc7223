package notification

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/auth"
	"github.com/yusufwdn/reimverse/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, actor auth.Actor, unreadOnly bool, page transport.Pagination) ([]*Notification, int64, error)
	MarkRead(ctx context.Context, actor auth.Actor, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetNotifications handles GET /notifications
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrInvalidToken)
		return
	}

	page := h.ParsePagination(r)
	unread := r.URL.Query().Get("unread")
	items, total, err := h.Service.List(r.Context(), actor, unread == "1" || unread == "true", page)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, transport.NewListResponse(items, page, total))
}

// MarkAsRead handles POST /notifications/{id}/read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrInvalidToken)
		return
	}

	if err := h.Service.MarkRead(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}
