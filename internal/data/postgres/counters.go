package postgres

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const countersTable = "counters"

type counters struct {
	db      *pgdb.DB
	chainID int64
}

func NewCounters(db *pgdb.DB, chainID int64) data.Counters {
	return counters{db: db, chainID: chainID}
}

func (q counters) Get(name string) (uint64, error) {
	var result struct {
		Value uint64 `db:"value"`
	}
	stmt := squirrel.Select("value").From(countersTable).
		Where(squirrel.Eq{"chain_id": q.chainID, "name": name})

	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to select counter")
	}
	return result.Value, nil
}

func (q counters) Raise(name string, value uint64) error {
	stmt := squirrel.Insert(countersTable).
		Columns("chain_id", "name", "value").
		Values(q.chainID, name, value).
		Suffix("ON CONFLICT (chain_id, name) DO UPDATE SET value = GREATEST(counters.value, EXCLUDED.value)")

	err := q.db.Exec(stmt)
	return errors.Wrap(err, "failed to raise counter")
}
