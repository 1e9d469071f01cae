//nolint:whitespace // can't make both editor and linter happy
package attempt

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/repository"
)

const selector = `select a.id, a.competitor_id, a.section_id, a.lap,
	a.penalty, a.dns, a.created_at, a.updated_at from attempt a`

// Create appends a new attempt. The database enforces the uniqueness of
// (competitor_id, section_id, lap); callers detect a lost race via
// repository.UniqueViolation on the returned error.
func Create(
	ctx context.Context,
	conn repository.Querier,
	arg *model.Attempt,
) (*model.Attempt, error) {
	row := conn.QueryRow(ctx, `
	insert into attempt (competitor_id, section_id, lap, penalty, dns)
	values ($1,$2,$3,$4,$5)
	returning id, created_at
	`, arg.CompetitorID, arg.SectionID, arg.Lap,
		penaltyArg(arg.Outcome), arg.Outcome.DNS)
	ret := *arg
	if err := row.Scan(&ret.ID, &ret.CreatedAt); err != nil {
		return nil, err
	}
	return &ret, nil
}

func LoadByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (
	*model.Attempt, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where a.id=$1", selector), id)
	return readData(row)
}

func LoadByCompetitorID(
	ctx context.Context,
	conn repository.Querier,
	competitorID int,
) ([]*model.Attempt, error) {
	return loadMany(ctx, conn,
		fmt.Sprintf("%s where a.competitor_id=$1 order by a.created_at asc", selector),
		competitorID)
}

func LoadBySectionID(
	ctx context.Context,
	conn repository.Querier,
	sectionID int,
) ([]*model.Attempt, error) {
	return loadMany(ctx, conn,
		fmt.Sprintf("%s where a.section_id=$1 order by a.created_at asc", selector),
		sectionID)
}

func LoadAll(ctx context.Context, conn repository.Querier) (
	[]*model.Attempt, error,
) {
	return loadMany(ctx, conn,
		fmt.Sprintf("%s order by a.created_at asc", selector))
}

// UpdateOutcome replaces only the outcome and stamps updated_at.
// Competitor, section and lap are immutable once created.
func UpdateOutcome(
	ctx context.Context,
	conn repository.Querier,
	id uuid.UUID,
	outcome model.Outcome,
) (*model.Attempt, error) {
	cmdTag, err := conn.Exec(ctx, `
	update attempt set penalty=$1, dns=$2, updated_at=now() where id=$3
	`, penaltyArg(outcome), outcome.DNS, id)
	if err != nil {
		return nil, err
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, repository.ErrNoData
	}
	return LoadByID(ctx, conn, id)
}

func DeleteByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (
	int, error,
) {
	cmdTag, err := conn.Exec(ctx, "delete from attempt where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

// DeleteAll wipes the whole ledger. Destructive, admin use only.
func DeleteAll(ctx context.Context, conn repository.Querier) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from attempt")
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func loadMany(
	ctx context.Context,
	conn repository.Querier,
	sql string,
	args ...interface{},
) ([]*model.Attempt, error) {
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.Attempt, 0)
	for rows.Next() {
		item, err := readData(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// penalty is stored as null for a DNS, see the table check constraint
func penaltyArg(o model.Outcome) *int {
	if o.DNS {
		return nil
	}
	p := o.Penalty
	return &p
}

func readData(row pgx.Row) (*model.Attempt, error) {
	var item model.Attempt
	var penalty *int
	err := row.Scan(&item.ID, &item.CompetitorID, &item.SectionID, &item.Lap,
		&penalty, &item.Outcome.DNS, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNoData
		}
		return nil, err
	}
	if penalty != nil {
		item.Outcome.Penalty = *penalty
	}
	return &item, nil
}
