package shift_test

import (
	"context"
	"database/sql"
	"testing"

	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"
	"ms-excursions/internal/shift"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// recordingPublisher captures day-closed events instead of hitting Kafka.
type recordingPublisher struct {
	published []models.ShiftClosure
	fail      error
}

func (p *recordingPublisher) PublishDayClosed(closure models.ShiftClosure) error {
	if p.fail != nil {
		return p.fail
	}
	p.published = append(p.published, closure)
	return nil
}

func setupShift(t *testing.T) (*shift.Service, *recordingPublisher) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.ShiftClosure)(nil)))

	pub := &recordingPublisher{}
	return shift.NewService(&shift.DB{Bun: bunDB}, pub, logger.NewLogger()), pub
}

func TestCloseLocksDay(t *testing.T) {
	svc, pub := setupShift(t)
	ctx := context.Background()

	closed, err := svc.IsClosed(ctx, "2026-02-20")
	require.NoError(t, err)
	assert.False(t, closed)

	closure, err := svc.Close(ctx, "2026-02-20", "dispatcher:3")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-20", closure.BusinessDay)
	assert.Equal(t, "dispatcher:3", closure.ClosedBy)
	assert.False(t, closure.ClosedAt.IsZero())

	closed, err = svc.IsClosed(ctx, "2026-02-20")
	require.NoError(t, err)
	assert.True(t, closed)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "2026-02-20", pub.published[0].BusinessDay)
}

func TestCloseTwiceKeepsOriginal(t *testing.T) {
	svc, pub := setupShift(t)
	ctx := context.Background()

	first, err := svc.Close(ctx, "2026-02-20", "dispatcher:3")
	require.NoError(t, err)

	_, err = svc.Close(ctx, "2026-02-20", "owner:1")
	var closedErr *models.AlreadyClosedError
	require.ErrorAs(t, err, &closedErr)
	assert.Equal(t, "2026-02-20", closedErr.BusinessDay)

	// The original closure row stands untouched.
	stored, err := svc.GetClosure(ctx, "2026-02-20")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, first.ClosedBy, stored.ClosedBy)

	// Only the first close publishes.
	assert.Len(t, pub.published, 1)
}

func TestCloseRejectsMalformedDay(t *testing.T) {
	svc, _ := setupShift(t)

	for _, day := range []string{"", "20-02-2026", "2026-2-20", "2026-02-30T00:00"} {
		_, err := svc.Close(context.Background(), day, "owner:1")
		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr, "day %q", day)
		assert.Equal(t, "business_day", vErr.Field)
	}
}

func TestClosePublishFailureStillCloses(t *testing.T) {
	svc, pub := setupShift(t)
	pub.fail = assert.AnError
	ctx := context.Background()

	_, err := svc.Close(ctx, "2026-02-21", "dispatcher:3")
	require.NoError(t, err)

	closed, err := svc.IsClosed(ctx, "2026-02-21")
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestGetClosureMissingDay(t *testing.T) {
	svc, _ := setupShift(t)

	closure, err := svc.GetClosure(context.Background(), "2026-02-22")
	require.NoError(t, err)
	assert.Nil(t, closure)
}
