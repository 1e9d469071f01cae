//nolint:whitespace // can't make both editor and linter happy
package class

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/repository"
)

const selector = `select c.id, c.name, c.laps, c.color from class c`

// Create stores a class together with its member sections.
// The section order is preserved as course order.
func Create(
	ctx context.Context,
	conn repository.Querier,
	arg *model.Class,
) (*model.Class, error) {
	row := conn.QueryRow(ctx, `
	insert into class (name, laps, color) values ($1,$2,$3) returning id
	`, arg.Name, arg.Laps, arg.Color)
	var id int
	if err := row.Scan(&id); err != nil {
		return nil, err
	}
	if err := replaceSections(ctx, conn, id, arg.SectionIDs); err != nil {
		return nil, err
	}
	return LoadByID(ctx, conn, id)
}

func LoadByID(ctx context.Context, conn repository.Querier, id int) (
	*model.Class, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where c.id=$1", selector), id)
	item, err := readData(row)
	if err != nil {
		return nil, err
	}
	if item.SectionIDs, err = loadSectionIDs(ctx, conn, id); err != nil {
		return nil, err
	}
	return item, nil
}

func LoadAll(ctx context.Context, conn repository.Querier) (
	[]*model.Class, error,
) {
	rows, err := conn.Query(ctx, fmt.Sprintf("%s order by c.id asc", selector))
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Class, 0)
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
		if item.SectionIDs, err = loadSectionIDs(ctx, conn, item.ID); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Update replaces name, laps, color and the member section set.
func Update(
	ctx context.Context,
	conn repository.Querier,
	arg *model.Class,
) (*model.Class, error) {
	cmdTag, err := conn.Exec(ctx, `
	update class set name=$1, laps=$2, color=$3 where id=$4
	`, arg.Name, arg.Laps, arg.Color, arg.ID)
	if err != nil {
		return nil, err
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, repository.ErrNoData
	}
	if err := replaceSections(ctx, conn, arg.ID, arg.SectionIDs); err != nil {
		return nil, err
	}
	return LoadByID(ctx, conn, arg.ID)
}

func DeleteByID(ctx context.Context, conn repository.Querier, id int) (
	int, error,
) {
	cmdTag, err := conn.Exec(ctx, "delete from class where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func DeleteAll(ctx context.Context, conn repository.Querier) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from class")
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func replaceSections(
	ctx context.Context,
	conn repository.Querier,
	classID int,
	sectionIDs []int,
) error {
	if _, err := conn.Exec(ctx,
		"delete from class_section where class_id=$1", classID); err != nil {
		return err
	}
	for pos, sectionID := range sectionIDs {
		if _, err := conn.Exec(ctx, `
		insert into class_section (class_id, section_id, pos) values ($1,$2,$3)
		`, classID, sectionID, pos); err != nil {
			return err
		}
	}
	return nil
}

func loadSectionIDs(
	ctx context.Context,
	conn repository.Querier,
	classID int,
) ([]int, error) {
	rows, err := conn.Query(ctx, `
	select section_id from class_section where class_id=$1 order by pos asc
	`, classID)
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

func readData(row pgx.Row) (*model.Class, error) {
	var item model.Class
	if err := row.Scan(&item.ID, &item.Name, &item.Laps, &item.Color); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNoData
		}
		return nil, err
	}
	return &item, nil
}
