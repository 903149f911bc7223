package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/yusufwdn/reimverse/internal/activity"
)

type Reader struct {
	db *sqlx.DB
}

func NewReader(db *sqlx.DB) activity.ReaderAPI {
	return &Reader{db: db}
}

const listByReimbursementQuery = `
SELECT a.id, a.user_id, u.name AS user_name, a.reimbursement_id, a.action, a.description, a.created_at
FROM activity_logs a
LEFT JOIN users u ON u.id = a.user_id
WHERE a.reimbursement_id = ?
ORDER BY a.created_at ASC, a.id ASC
`

func (r *Reader) ListByReimbursement(ctx context.Context, reimbursementID int64) ([]activity.Entry, error) {
	var entries []activity.Entry
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(listByReimbursementQuery), reimbursementID); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
