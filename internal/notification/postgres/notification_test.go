package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	notificationDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/notification"
	"github.com/yusufwdn/reimverse/internal/core/testdb"
	notificationPostgres "github.com/yusufwdn/reimverse/internal/notification/postgres"
	"github.com/yusufwdn/reimverse/internal/transport"
)

func row(id string, userID int64, createdAt time.Time) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:        id,
		UserID:    userID,
		Type:      "reimbursement_submitted",
		Data:      `{"reimbursement_id":1}`,
		CreatedAt: createdAt,
	}
}

func TestNotificationRepository(t *testing.T) {
	db, err := testdb.Open()
	require.NoError(t, err)
	repo := notificationPostgres.NewNotificationRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	inserted, err := repo.Insert(ctx, row("a", 2, base))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Insert(ctx, row("a", 2, base))
	require.NoError(t, err)
	assert.False(t, inserted, "second insert with the same id is a no-op")

	_, err = repo.Insert(ctx, row("b", 2, base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, row("c", 3, base))
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, exists)

	page := transport.Pagination{Page: 1, PerPage: 50}
	rows, total, err := repo.ListByUser(ctx, 2, false, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].ID)

	ok, err := repo.MarkRead(ctx, 3, "a", base)
	require.NoError(t, err)
	assert.False(t, ok, "other users cannot mark the notification")

	ok, err = repo.MarkRead(ctx, 2, "a", base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkRead(ctx, 2, "a", base.Add(5*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok, "marking twice is fine")

	rows, total, err = repo.ListByUser(ctx, 2, true, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "b", rows[0].ID)

	var a notificationDatamodel.Notification
	require.NoError(t, db.First(&a, "id = ?", "a").Error)
	require.NotNil(t, a.ReadAt)
	assert.True(t, a.ReadAt.Equal(base.Add(2*time.Hour)), "first read time is kept")
}
