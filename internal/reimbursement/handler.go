package reimbursement

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/auth"
	"github.com/yusufwdn/reimverse/internal/receipt"
	"github.com/yusufwdn/reimverse/internal/transport"
)

// multipart framing and the text fields ride on top of the receipt itself
const formOverheadBytes = 1 << 20

type ServiceAPI interface {
	Submit(ctx context.Context, actor auth.Actor, dto SubmitDTO) (*Reimbursement, error)
	ListOwn(ctx context.Context, actor auth.Actor, page transport.Pagination) ([]*Reimbursement, int64, error)
	GetOwn(ctx context.Context, actor auth.Actor, id int64) (*Reimbursement, error)
	Delete(ctx context.Context, actor auth.Actor, id int64) error
	ListAll(ctx context.Context, status Status, page transport.Pagination) ([]*Reimbursement, int64, error)
	Approve(ctx context.Context, actor auth.Actor, id int64) (*Reimbursement, error)
	Reject(ctx context.Context, actor auth.Actor, id int64, dto RejectDTO) (*Reimbursement, error)
	AdminList(ctx context.Context, filter ListFilter) ([]*Reimbursement, int64, error)
	AdminGet(ctx context.Context, id int64) (*Reimbursement, error)
}

type Handler struct {
	*transport.BaseHandler
	Service         ServiceAPI
	maxReceiptBytes int64
	loc             *time.Location
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, maxReceiptBytes int64, loc *time.Location) *Handler {
	if maxReceiptBytes <= 0 {
		maxReceiptBytes = internal.DefaultMaxReceiptBytes
	}
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		BaseHandler:     baseHandler,
		Service:         svc,
		maxReceiptBytes: maxReceiptBytes,
		loc:             loc,
	}
}

type Envelope struct {
	Message       string         `json:"message"`
	Reimbursement *Reimbursement `json:"reimbursement,omitempty"`
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrInvalidToken)
	}
	return actor, ok
}

// GetReimbursements handles GET /reimbursements
func (h *Handler) GetReimbursements(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	page := h.ParsePagination(r)
	items, total, err := h.Service.ListOwn(r.Context(), actor, page)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, transport.NewListResponse(items, page, total))
}

// CreateReimbursement handles POST /reimbursements (multipart/form-data)
func (h *Handler) CreateReimbursement(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	dto, cleanup, err := h.readSubmitForm(w, r)
	defer cleanup()
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	created, err := h.Service.Submit(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, Envelope{
		Message:       "Reimbursement created successfully",
		Reimbursement: created,
	})
}

// GetReimbursement handles GET /reimbursements/{id}
func (h *Handler) GetReimbursement(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	item, err := h.Service.GetOwn(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, Envelope{Message: "Get Reimbursement by ID", Reimbursement: item})
}

// DeleteReimbursement handles DELETE /reimbursements/{id}
func (h *Handler) DeleteReimbursement(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, Envelope{Message: "Reimbursement deleted successfully"})
}

// GetQueue handles GET /manager/reimbursements
func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	status, appErr := ParseStatusFilter(r.URL.Query())
	if appErr != nil {
		h.HandleServiceError(w, r, appErr)
		return
	}

	page := h.ParsePagination(r)
	items, total, err := h.Service.ListAll(r.Context(), status, page)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, transport.NewListResponse(items, page, total))
}

// ApproveReimbursement handles POST /manager/reimbursements/{id}/approve
func (h *Handler) ApproveReimbursement(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	item, err := h.Service.Approve(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, Envelope{Message: "Reimbursement approved successfully", Reimbursement: item})
}

// RejectReimbursement handles POST /manager/reimbursements/{id}/reject
func (h *Handler) RejectReimbursement(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto RejectDTO
	if err := h.decodeReject(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	item, err := h.Service.Reject(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, Envelope{Message: "Reimbursement rejected successfully", Reimbursement: item})
}

// GetAuditList handles GET /admin/reimbursements
func (h *Handler) GetAuditList(w http.ResponseWriter, r *http.Request) {
	filter, appErr := ParseAdminFilter(r.URL.Query(), h.loc)
	if appErr != nil {
		h.HandleServiceError(w, r, appErr)
		return
	}
	filter.Page = h.ParsePagination(r)

	items, total, err := h.Service.AdminList(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, transport.NewListResponse(items, filter.Page, total))
}

// GetAuditEntry handles GET /admin/reimbursements/{id}
func (h *Handler) GetAuditEntry(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	item, err := h.Service.AdminGet(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, Envelope{Message: "Get Reimbursement by ID", Reimbursement: item})
}

// decodeReject accepts the reason as JSON or as a form field.
func (h *Handler) decodeReject(r *http.Request, dto *RejectDTO) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		dto.Reason = r.FormValue("reason")
		return nil
	}
	return h.DecodeJSON(r, dto)
}

// readSubmitForm pulls the claim fields out of a multipart body. A request
// that is not multipart at all yields an empty form, so validation reports
// each missing field. The returned cleanup must always be called.
func (h *Handler) readSubmitForm(w http.ResponseWriter, r *http.Request) (SubmitDTO, func(), error) {
	var dto SubmitDTO
	cleanup := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxReceiptBytes+formOverheadBytes)
	err := r.ParseMultipartForm(h.maxReceiptBytes)
	switch {
	case err == nil:
		cleanup = func() {
			if rmErr := r.MultipartForm.RemoveAll(); rmErr != nil {
				h.Logger.Warn("failed to remove multipart temp files", "error", rmErr)
			}
		}
	case errors.Is(err, http.ErrNotMultipart):
	default:
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return dto, cleanup, receipt.TooLarge(h.maxReceiptBytes)
		}
		return dto, cleanup, internal.NewValidationError("The request body is not a valid form.", internal.ErrCodeValidationFailed).WithCause(err)
	}

	dto.CategoryID = parseOptionalID(r.PostFormValue("category_id"))
	dto.Title = r.PostFormValue("title")
	dto.Amount = r.PostFormValue("amount")
	if description := r.PostFormValue("description"); description != "" {
		dto.Description = &description
	}

	if r.MultipartForm == nil {
		return dto, cleanup, nil
	}
	file, header, err := r.FormFile("receipt")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return dto, cleanup, nil
		}
		return dto, cleanup, fmt.Errorf("read receipt: %w", err)
	}

	removeTemp := cleanup
	cleanup = func() {
		file.Close()
		removeTemp()
	}
	dto.Receipt = &receipt.Upload{Filename: header.Filename, Size: header.Size, File: file}
	return dto, cleanup, nil
}
