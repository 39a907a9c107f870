package reputation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/civicpulse/pulse-backend/internal/database/dbtest"
	"github.com/civicpulse/pulse-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardRejectsNonPositiveDelta(t *testing.T) {
	l := NewLedger(nil, nil)
	for _, delta := range []int{0, -5} {
		_, err := l.Award(context.Background(), uuid.New(), delta)
		assert.ErrorIs(t, err, ErrInvalidDelta)

		_, err = l.AwardTx(context.Background(), nil, uuid.New(), delta)
		assert.ErrorIs(t, err, ErrInvalidDelta)
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLeaderboardSize, clampLimit(0))
	assert.Equal(t, DefaultLeaderboardSize, clampLimit(-3))
	assert.Equal(t, 1, clampLimit(1))
	assert.Equal(t, 42, clampLimit(42))
	assert.Equal(t, MaxLeaderboardSize, clampLimit(1000))
}

func TestTruncate(t *testing.T) {
	s := []Standing{{Username: "a"}, {Username: "b"}, {Username: "c"}}
	assert.Len(t, truncate(s, 2), 2)
	assert.Len(t, truncate(s, 5), 3)
}

func TestProfileIsCreatedOnFirstAccess(t *testing.T) {
	db := dbtest.DB(t)
	u := dbtest.CreateUser(t, db, "rep_first_"+uuid.NewString()[:8])
	l := NewLedger(db, nil)

	p, err := l.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Points)
	assert.Equal(t, models.DefaultLevel, p.Level)

	again, err := l.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
}

func TestConcurrentAwardsAreNotLost(t *testing.T) {
	db := dbtest.DB(t)
	u := dbtest.CreateUser(t, db, "rep_conc_"+uuid.NewString()[:8])
	l := NewLedger(db, nil)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Award(context.Background(), u.ID, 10); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("award failed: %v", err)
	}

	p, err := l.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, workers*10, p.Points)
}

func TestLeaderboardOrdering(t *testing.T) {
	db := dbtest.DB(t)
	l := NewLedger(db, nil)
	ctx := context.Background()

	// Points far above anything other tests award, so these users own the top of the board.
	suffix := uuid.NewString()[:8]
	high := dbtest.CreateUser(t, db, fmt.Sprintf("rep_high_%s", suffix))
	tieA := dbtest.CreateUser(t, db, fmt.Sprintf("rep_tie_a_%s", suffix))
	tieB := dbtest.CreateUser(t, db, fmt.Sprintf("rep_tie_b_%s", suffix))

	_, err := l.Award(ctx, high.ID, 1_000_000)
	require.NoError(t, err)
	_, err = l.Award(ctx, tieA.ID, 900_000)
	require.NoError(t, err)
	_, err = l.Award(ctx, tieB.ID, 900_000)
	require.NoError(t, err)

	board, err := l.Leaderboard(ctx, 3)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, high.Username, board[0].Username)
	assert.Equal(t, 1_000_000, board[0].Points)

	first, second := tieA, tieB
	if tieB.ID.String() < tieA.ID.String() {
		first, second = tieB, tieA
	}
	assert.Equal(t, first.Username, board[1].Username)
	assert.Equal(t, second.Username, board[2].Username)

	again, err := l.Leaderboard(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, board, again)
}
