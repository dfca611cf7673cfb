package postgres

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/fatih/structs"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const dealsTable = "deals"

type deals struct {
	db      *pgdb.DB
	chainID int64
}

func NewDeals(db *pgdb.DB, chainID int64) data.Deals {
	return deals{db: db, chainID: chainID}
}

func (q deals) Get(dealID string) (*data.Deal, error) {
	var result data.Deal
	stmt := squirrel.Select("*").From(dealsTable).
		Where(squirrel.Eq{"chain_id": q.chainID, "deal_id": dealID})

	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to select deal")
	}
	return &result, nil
}

func (q deals) Insert(deal data.Deal) (bool, error) {
	deal.ChainID = q.chainID
	stmt := squirrel.Insert(dealsTable).SetMap(structs.Map(deal)).
		Suffix("ON CONFLICT (chain_id, deal_id) DO NOTHING RETURNING id")

	var id int64
	if err := q.db.Get(&id, stmt); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to insert deal")
	}
	return true, nil
}
