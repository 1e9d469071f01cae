//nolint:whitespace // can't make both editor and linter happy
package section

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/repository"
)

const selector = `select s.id, s.name from section s`

func Create(
	ctx context.Context,
	conn repository.Querier,
	name string,
) (*model.Section, error) {
	row := conn.QueryRow(ctx,
		"insert into section (name) values ($1) returning id", name)
	var id int
	if err := row.Scan(&id); err != nil {
		return nil, err
	}
	return &model.Section{ID: id, Name: name}, nil
}

func LoadByID(ctx context.Context, conn repository.Querier, id int) (
	*model.Section, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where s.id=$1", selector), id)
	return readData(row)
}

func LoadAll(ctx context.Context, conn repository.Querier) (
	[]*model.Section, error,
) {
	rows, err := conn.Query(ctx, fmt.Sprintf("%s order by s.id asc", selector))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.Section, 0)
	for rows.Next() {
		item, err := readData(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// UpdateName renames a section. Renaming is the only change allowed once
// attempts reference the section.
func UpdateName(
	ctx context.Context,
	conn repository.Querier,
	id int,
	name string,
) (int, error) {
	cmdTag, err := conn.Exec(ctx,
		"update section set name=$1 where id=$2", name, id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

// DeleteByID removes a section, returns the number of rows deleted.
// The foreign key from attempt refuses the delete while attempts exist.
func DeleteByID(ctx context.Context, conn repository.Querier, id int) (
	int, error,
) {
	cmdTag, err := conn.Exec(ctx, "delete from section where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func DeleteAll(ctx context.Context, conn repository.Querier) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from section")
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func readData(row pgx.Row) (*model.Section, error) {
	var item model.Section
	if err := row.Scan(&item.ID, &item.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNoData
		}
		return nil, err
	}
	return &item, nil
}
