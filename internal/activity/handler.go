package activity

import (
	"context"
	"net/http"

	"github.com/yusufwdn/reimverse/internal/transport"
)

type ServiceAPI interface {
	History(ctx context.Context, reimbursementID int64) ([]Entry, error)
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

type HistoryResponse struct {
	ReimbursementID int64   `json:"reimbursement_id"`
	Activities      []Entry `json:"activities"`
}

// GetHistory handles GET /admin/reimbursements/{id}/activities
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	entries, err := h.Service.History(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, HistoryResponse{ReimbursementID: id, Activities: entries})
}
