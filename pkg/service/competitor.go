//nolint:whitespace // can't make both editor and linter happy
package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/repository"
	"github.com/trialslog/trial-score-manager-go/pkg/repository/competitor"
)

// CompetitorService maintains the rider roster and class memberships.
type CompetitorService struct {
	pool *pgxpool.Pool
}

func InitCompetitorService(pool *pgxpool.Pool) *CompetitorService {
	return &CompetitorService{pool: pool}
}

func (s *CompetitorService) GetCompetitors(ctx context.Context) (
	[]*model.Competitor, error,
) {
	return competitor.LoadAll(ctx, s.pool)
}

func (s *CompetitorService) GetCompetitor(ctx context.Context, id int) (
	*model.Competitor, error,
) {
	ret, err := competitor.LoadByID(ctx, s.pool, id)
	if err != nil {
		return nil, asNotFound(err)
	}
	return ret, nil
}

func (s *CompetitorService) GetCompetitorByNumber(
	ctx context.Context,
	number int,
) (*model.Competitor, error) {
	ret, err := competitor.LoadByNumber(ctx, s.pool, number)
	if err != nil {
		return nil, asNotFound(err)
	}
	return ret, nil
}

func (s *CompetitorService) CreateCompetitor(
	ctx context.Context,
	arg *model.Competitor,
) (*model.Competitor, error) {
	if err := validateCompetitor(arg); err != nil {
		return nil, err
	}
	var created *model.Competitor
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		created, err = competitor.Create(ctx, tx, arg)
		return err
	})
	if err != nil {
		return nil, competitorWriteError(arg, err)
	}
	return created, nil
}

func (s *CompetitorService) UpdateCompetitor(
	ctx context.Context,
	arg *model.Competitor,
) (*model.Competitor, error) {
	if err := validateCompetitor(arg); err != nil {
		return nil, err
	}
	var updated *model.Competitor
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		updated, err = competitor.Update(ctx, tx, arg)
		return err
	})
	if err != nil {
		return nil, asNotFound(competitorWriteError(arg, err))
	}
	return updated, nil
}

// DeleteCompetitor removes a rider. Recorded attempts refuse the delete,
// the ledger stays append-only even for roster mistakes.
func (s *CompetitorService) DeleteCompetitor(ctx context.Context, id int) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		num, err := competitor.DeleteByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if num == 0 {
			return ErrNotFound
		}
		return nil
	})
	if repository.FKViolation(err) {
		return configErrorf("competitor %d has recorded attempts", id)
	}
	return err
}

func validateCompetitor(arg *model.Competitor) error {
	if arg.Name == "" {
		return configErrorf("competitor name must not be empty")
	}
	if arg.Number < 1 {
		return configErrorf("bib number must be positive, got %d", arg.Number)
	}
	return nil
}

func competitorWriteError(arg *model.Competitor, err error) error {
	switch {
	case repository.UniqueViolation(err):
		return configErrorf("bib number %d already taken", arg.Number)
	case repository.FKViolation(err):
		return configErrorf("competitor references an unknown class")
	}
	return err
}
