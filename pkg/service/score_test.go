//nolint:funlen,errcheck // ok for this test code
package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/notify"
	"github.com/trialslog/trial-score-manager-go/testsupport/basedata"
	"github.com/trialslog/trial-score-manager-go/testsupport/testdb"
)

type recordingNotifier struct {
	mu      sync.Mutex
	changes []notify.Change
}

func (r *recordingNotifier) LedgerChanged(change notify.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
}

func (r *recordingNotifier) kinds() []notify.ChangeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]notify.ChangeKind, 0, len(r.changes))
	for _, c := range r.changes {
		ret = append(ret, c.Kind)
	}
	return ret
}

func clean(penalty int) model.Outcome {
	return model.Outcome{Penalty: penalty}
}

func uuidMustNew() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

func TestSubmitAttemptAssignsLaps(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	rec := &recordingNotifier{}
	s := InitScoreService(pool, WithChangeNotifier(rec))
	ctx := context.Background()
	rider := event.RiderByNumber(30)
	waterfall := event.SectionByName("Waterfall")

	for lap := 1; lap <= 4; lap++ {
		created, err := s.SubmitAttempt(ctx, rider.ID, waterfall.ID, clean(lap%3))
		require.NoError(t, err)
		assert.Equal(t, lap, created.Lap)
	}
	_, err := s.SubmitAttempt(ctx, rider.ID, waterfall.ID, clean(0))
	assert.ErrorIs(t, err, ErrCourseComplete)
	assert.Len(t, rec.kinds(), 4)
}

func TestSubmitAttemptBlocked(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	s := InitScoreService(pool)
	ctx := context.Background()
	rider := event.RiderByNumber(7)
	rocks := event.SectionByName("Rocks")

	_, err := s.SubmitAttempt(ctx, rider.ID, rocks.ID, clean(0))
	require.NoError(t, err)

	// a second attempt at Rocks would start lap 2 with five sections open
	_, err = s.SubmitAttempt(ctx, rider.ID, rocks.ID, clean(5))
	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, 1, blocked.CurrentLap)
	assert.Equal(t,
		[]string{"Creek", "Gully", "Hillclimb", "Logs", "Quarry"},
		blocked.BlockingSections)
}

func TestSubmitAttemptValidation(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	s := InitScoreService(pool)
	ctx := context.Background()

	_, err := s.SubmitAttempt(ctx,
		event.RiderByNumber(7).ID, event.SectionByName("Rocks").ID,
		model.Outcome{Penalty: 4})
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = s.SubmitAttempt(ctx,
		99999, event.SectionByName("Rocks").ID, clean(0))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SubmitAttempt(ctx, event.RiderByNumber(7).ID, 99999, clean(0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvaluateAttemptIsDryRun(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	s := InitScoreService(pool)
	ctx := context.Background()
	rider := event.RiderByNumber(7)
	rocks := event.SectionByName("Rocks")

	res, err := s.EvaluateAttempt(ctx, rider.ID, rocks.ID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.NextLap)

	// nothing was recorded
	attempts, err := s.GetCompetitorAttempts(ctx, rider.ID)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestCorrectAttempt(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	rec := &recordingNotifier{}
	s := InitScoreService(pool, WithChangeNotifier(rec))
	ctx := context.Background()
	rider := event.RiderByNumber(12)

	created, err := s.SubmitAttempt(ctx,
		rider.ID, event.SectionByName("Creek").ID, clean(5))
	require.NoError(t, err)

	corrected, err := s.CorrectAttempt(ctx, created.ID, clean(1))
	require.NoError(t, err)
	assert.Equal(t, created.ID, corrected.ID)
	assert.Equal(t, created.Lap, corrected.Lap)
	assert.Equal(t, 1, corrected.Outcome.Penalty)
	assert.NotNil(t, corrected.UpdatedAt)
	assert.Equal(t,
		[]notify.ChangeKind{notify.ChangeRecorded, notify.ChangeCorrected},
		rec.kinds())

	_, err = s.CorrectAttempt(ctx, uuidMustNew(), clean(0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveAttemptFreesLapSlot(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	rec := &recordingNotifier{}
	s := InitScoreService(pool, WithChangeNotifier(rec))
	ctx := context.Background()
	rider := event.RiderByNumber(12)
	creek := event.SectionByName("Creek")

	created, err := s.SubmitAttempt(ctx, rider.ID, creek.ID, clean(3))
	require.NoError(t, err)
	require.NoError(t, s.RemoveAttempt(ctx, created.ID))

	again, err := s.SubmitAttempt(ctx, rider.ID, creek.ID, clean(0))
	require.NoError(t, err)
	assert.Equal(t, 1, again.Lap)
	assert.Equal(t,
		[]notify.ChangeKind{
			notify.ChangeRecorded, notify.ChangeRemoved, notify.ChangeRecorded,
		},
		rec.kinds())

	err = s.RemoveAttempt(ctx, uuidMustNew())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetStandings(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	s := InitScoreService(pool)
	ctx := context.Background()
	rider := event.RiderByNumber(30)
	waterfall := event.SectionByName("Waterfall")

	penalties := []int{0, 1, 5, 2}
	for _, p := range penalties {
		_, err := s.SubmitAttempt(ctx, rider.ID, waterfall.ID, clean(p))
		require.NoError(t, err)
	}

	board, err := s.GetClassStandings(ctx, event.Expert.ID)
	require.NoError(t, err)
	require.True(t, board.Valid)
	require.Len(t, board.Entries, 1)
	entry := board.Entries[0]
	assert.Equal(t, 1, entry.Rank)
	assert.Equal(t, 8, entry.Total)
	assert.True(t, entry.Completed)

	boards, err := s.GetStandings(ctx)
	require.NoError(t, err)
	assert.Len(t, boards, 3)

	_, err = s.GetClassStandings(ctx, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentSubmissionsOneWinner(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	s := InitScoreService(pool)
	ctx := context.Background()
	rider := event.RiderByNumber(30)
	waterfall := event.SectionByName("Waterfall")

	const judges = 8
	var wg sync.WaitGroup
	errs := make([]error, judges)
	for i := 0; i < judges; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.SubmitAttempt(ctx, rider.ID, waterfall.ID, clean(0))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		// losers advanced a lap each, so later submissions may also pass;
		// anything refused must carry a gate or duplicate error
		var blocked *BlockedError
		ok := errors.Is(err, ErrDuplicateAttempt) ||
			errors.Is(err, ErrCourseComplete) ||
			errors.As(err, &blocked)
		assert.True(t, ok, "unexpected error: %v", err)
	}
	assert.Positive(t, succeeded)
	attempts, err := s.GetCompetitorAttempts(ctx, rider.ID)
	require.NoError(t, err)
	laps := make(map[int]bool)
	for _, a := range attempts {
		assert.False(t, laps[a.Lap], "duplicate lap %d", a.Lap)
		laps[a.Lap] = true
	}
}
