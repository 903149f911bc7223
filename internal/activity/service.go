package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yusufwdn/reimverse/internal"
)

type ReaderAPI interface {
	ListByReimbursement(ctx context.Context, reimbursementID int64) ([]Entry, error)
}

// ClaimLookup reports whether a reimbursement exists, trashed ones included.
type ClaimLookup interface {
	Exists(ctx context.Context, id int64, withTrashed bool) (bool, error)
}

type Service struct {
	reader ReaderAPI
	claims ClaimLookup
	logger *slog.Logger
}

func NewService(reader ReaderAPI, claims ClaimLookup, logger *slog.Logger) *Service {
	return &Service{
		reader: reader,
		claims: claims,
		logger: logger,
	}
}

// History returns the activity of a claim oldest first. Soft-deleted claims
// keep their history.
func (s *Service) History(ctx context.Context, reimbursementID int64) ([]Entry, error) {
	exists, err := s.claims.Exists(ctx, reimbursementID, true)
	if err != nil {
		return nil, fmt.Errorf("lookup reimbursement %d: %w", reimbursementID, err)
	}
	if !exists {
		return nil, internal.ErrRecordNotFound
	}

	entries, err := s.reader.ListByReimbursement(ctx, reimbursementID)
	if err != nil {
		s.logger.Error("failed to read activity log", "reimbursement_id", reimbursementID, "error", err)
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
