package reports

import (
	"context"
	"testing"

	"github.com/civicpulse/pulse-backend/internal/database/dbtest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStoreTransitionIsConditional(t *testing.T) {
	db := dbtest.DB(t, &Report{})
	u := dbtest.CreateUser(t, db, "rpt_"+uuid.NewString()[:8])
	store := NewGormStore(db)
	ctx := context.Background()

	r := &Report{ID: uuid.New(), UserID: u.ID, Title: "Broken bench", Description: "Slats missing", Status: StatusPending}
	require.NoError(t, store.CreateReport(ctx, r))
	t.Cleanup(func() { db.Delete(&Report{}, "id = ?", r.ID) })

	ok, err := store.Transition(ctx, r.ID, []string{StatusPending}, map[string]interface{}{"status": StatusVerified})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Transition(ctx, r.ID, []string{StatusPending}, map[string]interface{}{"status": StatusVerified})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, got.Status)

	sub, err := store.Submitter(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, sub.Username)

	assert.ErrorIs(t, store.DeleteOwned(ctx, uuid.New(), r.ID), ErrReportNotFound)
	require.NoError(t, store.DeleteOwned(ctx, u.ID, r.ID))
	_, err = store.GetReport(ctx, r.ID)
	assert.ErrorIs(t, err, ErrReportNotFound)
}
