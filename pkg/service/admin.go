package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trialslog/trial-score-manager-go/pkg/notify"
	"github.com/trialslog/trial-score-manager-go/pkg/repository/attempt"
	"github.com/trialslog/trial-score-manager-go/pkg/repository/class"
	"github.com/trialslog/trial-score-manager-go/pkg/repository/competitor"
	"github.com/trialslog/trial-score-manager-go/pkg/repository/section"
)

// AdminService bundles the destructive operations behind the admin surface.
type AdminService struct {
	pool     *pgxpool.Pool
	notifier notify.ChangeNotifier
}

type AdminOption func(s *AdminService)

func WithAdminChangeNotifier(notifier notify.ChangeNotifier) AdminOption {
	return func(s *AdminService) {
		s.notifier = notifier
	}
}

func InitAdminService(pool *pgxpool.Pool, opts ...AdminOption) *AdminService {
	s := &AdminService{pool: pool}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResetAttempts wipes the whole attempt ledger. Catalog and roster survive,
// this prepares a configured event for a fresh run.
func (s *AdminService) ResetAttempts(ctx context.Context) (int, error) {
	var num int
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		num, err = attempt.DeleteAll(ctx, tx)
		return err
	})
	if err != nil {
		return 0, err
	}
	if s.notifier != nil {
		s.notifier.LedgerChanged(notify.Change{Kind: notify.ChangeReset})
	}
	return num, nil
}

// ResetEvent removes everything: ledger, roster, classes and sections.
// Deletion order follows the foreign keys.
func (s *AdminService) ResetEvent(ctx context.Context) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		if _, err = attempt.DeleteAll(ctx, tx); err != nil {
			return err
		}
		if _, err = competitor.DeleteAll(ctx, tx); err != nil {
			return err
		}
		if _, err = class.DeleteAll(ctx, tx); err != nil {
			return err
		}
		_, err = section.DeleteAll(ctx, tx)
		return err
	})
	if err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.LedgerChanged(notify.Change{Kind: notify.ChangeReset})
	}
	return nil
}
