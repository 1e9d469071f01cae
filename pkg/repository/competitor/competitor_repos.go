//nolint:whitespace // can't make both editor and linter happy
package competitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/repository"
)

const selector = `select c.id, c.number, c.name from competitor c`

func Create(
	ctx context.Context,
	conn repository.Querier,
	arg *model.Competitor,
) (*model.Competitor, error) {
	row := conn.QueryRow(ctx, `
	insert into competitor (number, name) values ($1,$2) returning id
	`, arg.Number, arg.Name)
	var id int
	if err := row.Scan(&id); err != nil {
		return nil, err
	}
	if err := replaceClasses(ctx, conn, id, arg.ClassIDs); err != nil {
		return nil, err
	}
	return LoadByID(ctx, conn, id)
}

func LoadByID(ctx context.Context, conn repository.Querier, id int) (
	*model.Competitor, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where c.id=$1", selector), id)
	return enrich(ctx, conn, row)
}

func LoadByNumber(ctx context.Context, conn repository.Querier, number int) (
	*model.Competitor, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where c.number=$1", selector), number)
	return enrich(ctx, conn, row)
}

func LoadAll(ctx context.Context, conn repository.Querier) (
	[]*model.Competitor, error,
) {
	rows, err := conn.Query(ctx, fmt.Sprintf("%s order by c.number asc", selector))
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Competitor, 0)
	for rows.Next() {
		item, err := readData(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		ret = append(ret, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, item := range ret {
		if item.ClassIDs, err = loadClassIDs(ctx, conn, item.ID); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Update replaces number, name and the class membership set.
func Update(
	ctx context.Context,
	conn repository.Querier,
	arg *model.Competitor,
) (*model.Competitor, error) {
	cmdTag, err := conn.Exec(ctx, `
	update competitor set number=$1, name=$2 where id=$3
	`, arg.Number, arg.Name, arg.ID)
	if err != nil {
		return nil, err
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, repository.ErrNoData
	}
	if err := replaceClasses(ctx, conn, arg.ID, arg.ClassIDs); err != nil {
		return nil, err
	}
	return LoadByID(ctx, conn, arg.ID)
}

func DeleteByID(ctx context.Context, conn repository.Querier, id int) (
	int, error,
) {
	cmdTag, err := conn.Exec(ctx, "delete from competitor where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func DeleteAll(ctx context.Context, conn repository.Querier) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from competitor")
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func replaceClasses(
	ctx context.Context,
	conn repository.Querier,
	competitorID int,
	classIDs []int,
) error {
	if _, err := conn.Exec(ctx,
		"delete from competitor_class where competitor_id=$1", competitorID); err != nil {
		return err
	}
	for _, classID := range classIDs {
		if _, err := conn.Exec(ctx, `
		insert into competitor_class (competitor_id, class_id) values ($1,$2)
		`, competitorID, classID); err != nil {
			return err
		}
	}
	return nil
}

func loadClassIDs(
	ctx context.Context,
	conn repository.Querier,
	competitorID int,
) ([]int, error) {
	rows, err := conn.Query(ctx, `
	select class_id from competitor_class where competitor_id=$1 order by class_id asc
	`, competitorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ret = append(ret, id)
	}
	return ret, rows.Err()
}

func enrich(
	ctx context.Context,
	conn repository.Querier,
	row pgx.Row,
) (*model.Competitor, error) {
	item, err := readData(row)
	if err != nil {
		return nil, err
	}
	if item.ClassIDs, err = loadClassIDs(ctx, conn, item.ID); err != nil {
		return nil, err
	}
	return item, nil
}

func readData(row pgx.Row) (*model.Competitor, error) {
	var item model.Competitor
	if err := row.Scan(&item.ID, &item.Number, &item.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNoData
		}
		return nil, err
	}
	return &item, nil
}
