package reimbursement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/activity"
	"github.com/yusufwdn/reimverse/internal/auth"
	"github.com/yusufwdn/reimverse/internal/category"
	activityDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/activity"
	reimbursementDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/reimbursement"
	"github.com/yusufwdn/reimverse/internal/core/events"
	"github.com/yusufwdn/reimverse/internal/receipt"
	"github.com/yusufwdn/reimverse/internal/transport"
)

// RepositoryAPI groups each state change with its activity entry so that both
// commit or neither does.
type RepositoryAPI interface {
	SpendReader
	CreateWithActivity(ctx context.Context, row *reimbursementDatamodel.Reimbursement, log *activityDatamodel.ActivityLog) error
	GetByID(ctx context.Context, id int64, withTrashed bool) (*reimbursementDatamodel.Reimbursement, error)
	List(ctx context.Context, filter ListFilter) ([]*reimbursementDatamodel.Reimbursement, int64, error)
	// TransitionStatus applies updates only while the claim is still in
	// status from. It reports false when another request got there first.
	TransitionStatus(ctx context.Context, id int64, from Status, updates map[string]interface{}, log *activityDatamodel.ActivityLog) (bool, error)
	SoftDeleteWithActivity(ctx context.Context, id int64, log *activityDatamodel.ActivityLog) (bool, error)
}

type CategoryLookup interface {
	GetByID(ctx context.Context, id int64) (*category.Category, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Config struct {
	MaxReceiptBytes int64
	Location        *time.Location
}

type Service struct {
	repo       RepositoryAPI
	categories CategoryLookup
	receipts   receipt.Store
	publisher  EventPublisher
	limits     *LimitChecker
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, for tests that pin the current month.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo RepositoryAPI, categories CategoryLookup, receipts receipt.Store, publisher EventPublisher, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if cfg.MaxReceiptBytes <= 0 {
		cfg.MaxReceiptBytes = internal.DefaultMaxReceiptBytes
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	s := &Service{
		repo:       repo,
		categories: categories,
		receipts:   receipts,
		publisher:  publisher,
		limits:     NewLimitChecker(repo, cfg.Location),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) present(row *reimbursementDatamodel.Reimbursement) *Reimbursement {
	r := FromDataModel(row)
	r.ReceiptURL = s.receipts.URL(row.ReceiptPath)
	return r
}

func (s *Service) presentAll(rows []*reimbursementDatamodel.Reimbursement) []*Reimbursement {
	out := make([]*Reimbursement, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.present(row))
	}
	return out
}

// Submit validates, checks the monthly limit, stores the receipt and records
// the claim with its "created" activity in one transaction.
func (s *Service) Submit(ctx context.Context, actor auth.Actor, dto SubmitDTO) (*Reimbursement, error) {
	dto.Normalize()
	if err := dto.Validate(s.cfg.MaxReceiptBytes); err != nil {
		return nil, err
	}

	cat, err := s.categories.GetByID(ctx, dto.CategoryID)
	if err != nil {
		if errors.Is(err, category.ErrCategoryNotFound) {
			return nil, ErrInvalidCategory
		}
		return nil, err
	}

	now := s.now().UTC()
	if err := s.limits.Check(ctx, now, actor.ID, cat, dto.amount); err != nil {
		s.logger.Info("reimbursement refused by monthly limit",
			"user_id", actor.ID,
			"category_id", cat.ID,
			"amount", dto.amount.String())
		return nil, err
	}

	path, err := s.receipts.Save(ctx, dto.Receipt)
	if err != nil {
		return nil, fmt.Errorf("store receipt: %w", err)
	}

	row := newRow(actor.ID, cat, dto, path, now)
	if err := s.repo.CreateWithActivity(ctx, row, activity.Created(actor.ID)); err != nil {
		if delErr := s.receipts.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			s.logger.Error("failed to remove orphaned receipt", "path", path, "error", delErr)
		}
		return nil, fmt.Errorf("create reimbursement: %w", err)
	}

	s.logger.Info("reimbursement submitted",
		"reimbursement_id", row.ID,
		"user_id", actor.ID,
		"category_id", cat.ID,
		"amount", row.Amount.String())

	event := events.NewReimbursementSubmittedEvent(row.ID, row.Title, row.Amount, cat.Name, actor.ID, actor.Name)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish submitted event", "reimbursement_id", row.ID, "error", err)
	}

	return s.present(row), nil
}

// ListOwn lists the actor's own live claims, newest first.
func (s *Service) ListOwn(ctx context.Context, actor auth.Actor, page transport.Pagination) ([]*Reimbursement, int64, error) {
	filter := ListFilter{OwnerID: actor.ID, Page: page}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list own reimbursements: %w", err)
	}
	return s.presentAll(rows), total, nil
}

// GetOwn hides other users' claims behind the same not found as missing ones.
func (s *Service) GetOwn(ctx context.Context, actor auth.Actor, id int64) (*Reimbursement, error) {
	row, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, fmt.Errorf("get reimbursement %d: %w", id, err)
	}
	if row == nil || row.UserID != actor.ID {
		return nil, internal.ErrRecordNotFound
	}
	return s.present(row), nil
}

// Delete soft deletes a claim. Only the owner or an admin may do so; anyone
// else gets not found.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id int64) error {
	row, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return fmt.Errorf("get reimbursement %d: %w", id, err)
	}
	if row == nil || (row.UserID != actor.ID && !actor.IsAdmin()) {
		return internal.ErrRecordNotFound
	}

	deleted, err := s.repo.SoftDeleteWithActivity(ctx, id, activity.Deleted(actor.ID, id))
	if err != nil {
		return fmt.Errorf("delete reimbursement %d: %w", id, err)
	}
	if !deleted {
		return internal.ErrRecordNotFound
	}

	s.logger.Info("reimbursement deleted", "reimbursement_id", id, "user_id", actor.ID)
	return nil
}

// ListAll is the manager queue: every live claim, optionally by status.
func (s *Service) ListAll(ctx context.Context, status Status, page transport.Pagination) ([]*Reimbursement, int64, error) {
	rows, total, err := s.repo.List(ctx, ListFilter{Status: status, Page: page})
	if err != nil {
		return nil, 0, fmt.Errorf("list reimbursements: %w", err)
	}
	return s.presentAll(rows), total, nil
}

func (s *Service) Approve(ctx context.Context, actor auth.Actor, id int64) (*Reimbursement, error) {
	now := s.now().UTC()
	updates := map[string]interface{}{
		"status":      string(StatusApproved),
		"approved_at": now,
		"updated_at":  now,
	}
	row, err := s.decide(ctx, id, updates, activity.Approved(actor.ID, id), ErrNotPendingApprove)
	if err != nil {
		return nil, err
	}

	row.Status = string(StatusApproved)
	row.ApprovedAt = &now
	row.UpdatedAt = now

	s.logger.Info("reimbursement approved", "reimbursement_id", id, "manager_id", actor.ID)
	s.publishDecision(ctx, row, actor, "")
	return s.present(row), nil
}

// Reject validates the reason before touching the claim.
func (s *Service) Reject(ctx context.Context, actor auth.Actor, id int64, dto RejectDTO) (*Reimbursement, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reason := strings.TrimSpace(dto.Reason)
	updates := map[string]interface{}{
		"status":     string(StatusRejected),
		"reason":     reason,
		"updated_at": now,
	}
	row, err := s.decide(ctx, id, updates, activity.Rejected(actor.ID, id, reason), ErrNotPendingReject)
	if err != nil {
		return nil, err
	}

	row.Status = string(StatusRejected)
	row.Reason = &reason
	row.UpdatedAt = now

	s.logger.Info("reimbursement rejected", "reimbursement_id", id, "manager_id", actor.ID, "reason", reason)
	s.publishDecision(ctx, row, actor, reason)
	return s.present(row), nil
}

// decide runs the pending -> decided transition. The status read is only a
// fast path; the conditional update is what settles races between managers.
func (s *Service) decide(ctx context.Context, id int64, updates map[string]interface{}, log *activityDatamodel.ActivityLog, notPending error) (*reimbursementDatamodel.Reimbursement, error) {
	row, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, fmt.Errorf("get reimbursement %d: %w", id, err)
	}
	if row == nil {
		return nil, internal.ErrRecordNotFound
	}
	if Status(row.Status) != StatusPending {
		return nil, notPending
	}

	ok, err := s.repo.TransitionStatus(ctx, id, StatusPending, updates, log)
	if err != nil {
		return nil, fmt.Errorf("transition reimbursement %d: %w", id, err)
	}
	if !ok {
		s.logger.Warn("reimbursement decided concurrently", "reimbursement_id", id)
		return nil, notPending
	}
	return row, nil
}

func (s *Service) publishDecision(ctx context.Context, row *reimbursementDatamodel.Reimbursement, actor auth.Actor, reason string) {
	event := events.NewReimbursementDecidedEvent(row.ID, row.Title, row.Amount, row.Status, reason, row.UserID, actor.ID, actor.Name)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish decided event", "reimbursement_id", row.ID, "error", err)
	}
}

// AdminList is the audit view. Trashed claims appear only when asked for.
func (s *Service) AdminList(ctx context.Context, filter ListFilter) ([]*Reimbursement, int64, error) {
	filter.OwnerID = 0
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("admin list reimbursements: %w", err)
	}
	return s.presentAll(rows), total, nil
}

// AdminGet shows any claim, soft-deleted ones included.
func (s *Service) AdminGet(ctx context.Context, id int64) (*Reimbursement, error) {
	row, err := s.repo.GetByID(ctx, id, true)
	if err != nil {
		return nil, fmt.Errorf("get reimbursement %d: %w", id, err)
	}
	if row == nil {
		return nil, internal.ErrRecordNotFound
	}
	return s.present(row), nil
}
