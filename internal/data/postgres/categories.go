package postgres

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/fatih/structs"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const categoriesTable = "categories"

type categories struct {
	db      *pgdb.DB
	chainID int64
}

func NewCategories(db *pgdb.DB, chainID int64) data.Categories {
	return categories{db: db, chainID: chainID}
}

func (q categories) Get(catID int64) (*data.Category, error) {
	var result data.Category
	stmt := squirrel.Select("*").From(categoriesTable).
		Where(squirrel.Eq{"chain_id": q.chainID, "cat_id": catID})

	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to select category")
	}
	return &result, nil
}

func (q categories) Insert(category data.Category) (bool, error) {
	category.ChainID = q.chainID
	stmt := squirrel.Insert(categoriesTable).SetMap(structs.Map(category)).
		Suffix("ON CONFLICT (chain_id, cat_id) DO NOTHING RETURNING id")

	var id int64
	if err := q.db.Get(&id, stmt); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to insert category")
	}
	return true, nil
}
