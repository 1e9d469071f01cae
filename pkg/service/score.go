//nolint:whitespace // can't make both editor and linter happy
package service

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/notify"
	"github.com/trialslog/trial-score-manager-go/pkg/processing/progression"
	"github.com/trialslog/trial-score-manager-go/pkg/processing/standings"
	"github.com/trialslog/trial-score-manager-go/pkg/repository"
	"github.com/trialslog/trial-score-manager-go/pkg/repository/attempt"
	"github.com/trialslog/trial-score-manager-go/pkg/repository/competitor"
)

// ScoreService owns the attempt ledger: recording, correcting and removing
// attempts, and the derived standings views.
//
// Submissions for the same competitor are serialized with a per-competitor
// lock so that the progression gate always evaluates against the attempts it
// is about to extend. The unique constraint on (competitor, section, lap) is
// the backstop for submissions racing past the lock from another instance.
type ScoreService struct {
	pool     *pgxpool.Pool
	notifier notify.ChangeNotifier

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

type ScoreOption func(s *ScoreService)

// WithChangeNotifier registers the target for post-commit change events.
func WithChangeNotifier(notifier notify.ChangeNotifier) ScoreOption {
	return func(s *ScoreService) {
		s.notifier = notifier
	}
}

func InitScoreService(pool *pgxpool.Pool, opts ...ScoreOption) *ScoreService {
	s := &ScoreService{pool: pool, locks: make(map[int]*sync.Mutex)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateAttempt runs the progression gate for a proposed attempt without
// recording anything. Dry-run counterpart of SubmitAttempt.
func (s *ScoreService) EvaluateAttempt(
	ctx context.Context,
	competitorID int,
	sectionID int,
) (*model.ProgressionResult, error) {
	var res *model.ProgressionResult
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		res, err = s.evaluate(ctx, tx, competitorID, sectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SubmitAttempt records a new attempt. The lap number is assigned by the
// progression gate, never by the caller.
func (s *ScoreService) SubmitAttempt(
	ctx context.Context,
	competitorID int,
	sectionID int,
	outcome model.Outcome,
) (*model.Attempt, error) {
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}
	lock := s.competitorLock(competitorID)
	lock.Lock()
	defer lock.Unlock()

	var created *model.Attempt
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		res, err := s.evaluate(ctx, tx, competitorID, sectionID)
		if err != nil {
			return err
		}
		if res.CourseComplete {
			return ErrCourseComplete
		}
		if !res.Allowed {
			return &BlockedError{
				CurrentLap:       res.CurrentLap,
				BlockingSections: res.BlockingSections,
			}
		}
		created, err = attempt.Create(ctx, tx, &model.Attempt{
			CompetitorID: competitorID,
			SectionID:    sectionID,
			Lap:          res.NextLap,
			Outcome:      outcome,
		})
		if repository.UniqueViolation(err) {
			return ErrDuplicateAttempt
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.changed(notify.ChangeRecorded, created)
	return created, nil
}

// CorrectAttempt replaces the outcome of an existing attempt. The gate is
// not consulted: a correction never changes competitor, section or lap, so
// the progression state is unaffected.
func (s *ScoreService) CorrectAttempt(
	ctx context.Context,
	id uuid.UUID,
	outcome model.Outcome,
) (*model.Attempt, error) {
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}
	var updated *model.Attempt
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		updated, err = attempt.UpdateOutcome(ctx, tx, id, outcome)
		return err
	})
	if err != nil {
		return nil, asNotFound(err)
	}
	s.changed(notify.ChangeCorrected, updated)
	return updated, nil
}

// RemoveAttempt deletes an attempt, e.g. one recorded against the wrong
// rider. The gate will hand out the freed lap slot again.
func (s *ScoreService) RemoveAttempt(ctx context.Context, id uuid.UUID) error {
	var removed *model.Attempt
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		removed, err = attempt.LoadByID(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = attempt.DeleteByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return asNotFound(err)
	}
	s.changed(notify.ChangeRemoved, removed)
	return nil
}

func (s *ScoreService) GetAttempt(ctx context.Context, id uuid.UUID) (
	*model.Attempt, error,
) {
	ret, err := attempt.LoadByID(ctx, s.pool, id)
	if err != nil {
		return nil, asNotFound(err)
	}
	return ret, nil
}

func (s *ScoreService) GetAttempts(ctx context.Context) (
	[]*model.Attempt, error,
) {
	return attempt.LoadAll(ctx, s.pool)
}

func (s *ScoreService) GetCompetitorAttempts(
	ctx context.Context,
	competitorID int,
) ([]*model.Attempt, error) {
	if _, err := competitor.LoadByID(ctx, s.pool, competitorID); err != nil {
		return nil, asNotFound(err)
	}
	return attempt.LoadByCompetitorID(ctx, s.pool, competitorID)
}

// GetStandings recomputes the leaderboards of all classes from a repeatable
// read snapshot, so catalog, competitors and attempts are read consistently.
func (s *ScoreService) GetStandings(ctx context.Context) (
	[]*model.Leaderboard, error,
) {
	var boards []*model.Leaderboard
	err := pgx.BeginTxFunc(ctx, s.pool,
		pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly},
		func(tx pgx.Tx) error {
			catalog, err := loadCatalog(ctx, tx)
			if err != nil {
				return err
			}
			competitors, err := competitor.LoadAll(ctx, tx)
			if err != nil {
				return err
			}
			attempts, err := attempt.LoadAll(ctx, tx)
			if err != nil {
				return err
			}
			boards = standings.CalculateAll(catalog, competitors, attempts)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return boards, nil
}

// GetClassStandings recomputes the leaderboard of a single class.
func (s *ScoreService) GetClassStandings(ctx context.Context, classID int) (
	*model.Leaderboard, error,
) {
	boards, err := s.GetStandings(ctx)
	if err != nil {
		return nil, err
	}
	for _, board := range boards {
		if board.ClassID == classID {
			return board, nil
		}
	}
	return nil, ErrNotFound
}

// evaluate loads the gate inputs inside the caller's transaction and runs
// the progression gate.
func (s *ScoreService) evaluate(
	ctx context.Context,
	tx pgx.Tx,
	competitorID int,
	sectionID int,
) (*model.ProgressionResult, error) {
	catalog, err := loadCatalog(ctx, tx)
	if err != nil {
		return nil, err
	}
	if catalog.SectionByID(sectionID) == nil {
		return nil, ErrNotFound
	}
	comp, err := competitor.LoadByID(ctx, tx, competitorID)
	if err != nil {
		return nil, asNotFound(err)
	}
	attempts, err := attempt.LoadByCompetitorID(ctx, tx, competitorID)
	if err != nil {
		return nil, err
	}
	return progression.Evaluate(catalog, comp, sectionID, attempts), nil
}

func (s *ScoreService) competitorLock(competitorID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[competitorID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[competitorID] = lock
	}
	return lock
}

func (s *ScoreService) changed(kind notify.ChangeKind, a *model.Attempt) {
	if s.notifier == nil {
		return
	}
	s.notifier.LedgerChanged(notify.Change{Kind: kind, Attempt: a})
}
