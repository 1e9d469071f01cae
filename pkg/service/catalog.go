//nolint:whitespace // can't make both editor and linter happy
package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/repository"
	"github.com/trialslog/trial-score-manager-go/pkg/repository/class"
	"github.com/trialslog/trial-score-manager-go/pkg/repository/section"
)

// CatalogService maintains the event configuration: sections and classes.
// Consistency is enforced here, at edit time; the scoring path only reads
// catalog snapshots and reports whatever inconsistencies slipped through.
type CatalogService struct {
	pool *pgxpool.Pool
}

func InitCatalogService(pool *pgxpool.Pool) *CatalogService {
	return &CatalogService{pool: pool}
}

func (s *CatalogService) GetCatalog(ctx context.Context) (
	*model.Catalog, error,
) {
	var catalog *model.Catalog
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		catalog, err = loadCatalog(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

func (s *CatalogService) GetSections(ctx context.Context) (
	[]*model.Section, error,
) {
	return section.LoadAll(ctx, s.pool)
}

func (s *CatalogService) GetSection(ctx context.Context, id int) (
	*model.Section, error,
) {
	ret, err := section.LoadByID(ctx, s.pool, id)
	if err != nil {
		return nil, asNotFound(err)
	}
	return ret, nil
}

func (s *CatalogService) CreateSection(ctx context.Context, name string) (
	*model.Section, error,
) {
	if name == "" {
		return nil, configErrorf("section name must not be empty")
	}
	var created *model.Section
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		created, err = section.Create(ctx, tx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *CatalogService) RenameSection(
	ctx context.Context,
	id int,
	name string,
) error {
	if name == "" {
		return configErrorf("section name must not be empty")
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		num, err := section.UpdateName(ctx, tx, id, name)
		if err != nil {
			return err
		}
		if num == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteSection removes a section that is not part of any class and has no
// recorded attempts.
func (s *CatalogService) DeleteSection(ctx context.Context, id int) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		num, err := section.DeleteByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if num == 0 {
			return ErrNotFound
		}
		return nil
	})
	if repository.FKViolation(err) {
		return configErrorf("section %d is still referenced", id)
	}
	return err
}

func (s *CatalogService) GetClasses(ctx context.Context) (
	[]*model.Class, error,
) {
	return class.LoadAll(ctx, s.pool)
}

func (s *CatalogService) GetClass(ctx context.Context, id int) (
	*model.Class, error,
) {
	ret, err := class.LoadByID(ctx, s.pool, id)
	if err != nil {
		return nil, asNotFound(err)
	}
	return ret, nil
}

func (s *CatalogService) CreateClass(ctx context.Context, arg *model.Class) (
	*model.Class, error,
) {
	if err := validateClass(arg); err != nil {
		return nil, err
	}
	var created *model.Class
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		created, err = class.Create(ctx, tx, arg)
		return err
	})
	if repository.FKViolation(err) {
		return nil, configErrorf("class references an unknown section")
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *CatalogService) UpdateClass(ctx context.Context, arg *model.Class) (
	*model.Class, error,
) {
	if err := validateClass(arg); err != nil {
		return nil, err
	}
	var updated *model.Class
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		updated, err = class.Update(ctx, tx, arg)
		return err
	})
	if repository.FKViolation(err) {
		return nil, configErrorf("class references an unknown section")
	}
	if err != nil {
		return nil, asNotFound(err)
	}
	return updated, nil
}

func (s *CatalogService) DeleteClass(ctx context.Context, id int) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		num, err := class.DeleteByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if num == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func validateClass(arg *model.Class) error {
	if arg.Name == "" {
		return configErrorf("class name must not be empty")
	}
	if arg.Laps < 1 {
		return configErrorf("class needs at least one lap, got %d", arg.Laps)
	}
	if len(arg.SectionIDs) == 0 {
		return configErrorf("class needs at least one section")
	}
	seen := make(map[int]bool)
	for _, id := range arg.SectionIDs {
		if seen[id] {
			return configErrorf("section %d listed twice", id)
		}
		seen[id] = true
	}
	return nil
}

// loadCatalog reads the configuration snapshot the processing packages
// operate on. Callers run it inside a transaction when the snapshot must be
// consistent with other reads.
func loadCatalog(ctx context.Context, conn repository.Querier) (
	*model.Catalog, error,
) {
	sections, err := section.LoadAll(ctx, conn)
	if err != nil {
		return nil, err
	}
	classes, err := class.LoadAll(ctx, conn)
	if err != nil {
		return nil, err
	}
	return &model.Catalog{Sections: sections, Classes: classes}, nil
}

// asNotFound converts the repository's no-row marker to the service level
// ErrNotFound, other errors pass through.
func asNotFound(err error) error {
	if errors.Is(err, repository.ErrNoData) {
		return ErrNotFound
	}
	return err
}
