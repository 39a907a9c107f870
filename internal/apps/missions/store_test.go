package missions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/civicpulse/pulse-backend/internal/database/dbtest"
	"github.com/civicpulse/pulse-backend/internal/reputation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMission(t *testing.T, db *gorm.DB, store Store, points int) *Mission {
	t.Helper()
	m := &Mission{
		ID:           uuid.New(),
		Title:        "mission " + uuid.NewString()[:8],
		Description:  "A photo of a cleaned park bench.",
		PointsReward: points,
	}
	require.NoError(t, store.CreateMission(context.Background(), m))
	t.Cleanup(func() {
		db.Where("mission_id = ?", m.ID).Delete(&UserMission{})
		db.Delete(&Mission{}, "id = ?", m.ID)
	})
	return m
}

func TestGormStoreEnrollIsIdempotent(t *testing.T) {
	db := dbtest.DB(t, &Mission{}, &UserMission{})
	u := dbtest.CreateUser(t, db, "msn_"+uuid.NewString()[:8])
	ledger := reputation.NewLedger(db, nil)
	store := NewGormStore(db, ledger)
	m := newMission(t, db, store, 25)
	ctx := context.Background()

	var created int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Enroll(ctx, &UserMission{
				ID: uuid.New(), UserID: u.ID, MissionID: m.ID, Status: StatusPending, SubmittedAt: time.Now(),
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)

	e, err := store.GetEnrollment(ctx, u.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, e.Status)

	_, err = store.GetEnrollment(ctx, u.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestGormStoreCompleteAwardsOnce(t *testing.T) {
	db := dbtest.DB(t, &Mission{}, &UserMission{})
	u := dbtest.CreateUser(t, db, "msn_"+uuid.NewString()[:8])
	ledger := reputation.NewLedger(db, nil)
	store := NewGormStore(db, ledger)
	m := newMission(t, db, store, 60)
	ctx := context.Background()

	e := &UserMission{ID: uuid.New(), UserID: u.ID, MissionID: m.ID, Status: StatusPending, SubmittedAt: time.Now()}
	_, err := store.Enroll(ctx, e)
	require.NoError(t, err)

	ok, err := store.RecordAttempt(ctx, e.ID, map[string]interface{}{"proof_ref": "sha256:ab", "ai_confidence": 40})
	require.NoError(t, err)
	assert.True(t, ok)

	var wg sync.WaitGroup
	results := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done, err := store.Complete(ctx, e, map[string]interface{}{
				"status": StatusCompleted, "completed_at": time.Now(),
			}, m.PointsReward)
			assert.NoError(t, err)
			results <- done
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for done := range results {
		if done {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	profile, err := ledger.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, profile.Points)

	ok, err = store.RecordAttempt(ctx, e.ID, map[string]interface{}{"ai_confidence": 10})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.GetEnrollmentByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)

	enrollments, err := store.ListEnrollments(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.NotNil(t, enrollments[0].Mission)
	assert.Equal(t, m.Title, enrollments[0].Mission.Title)
}
