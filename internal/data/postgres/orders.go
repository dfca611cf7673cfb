package postgres

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/fatih/structs"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/lib/pq"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const ordersTable = "orders"

type orders struct {
	db      *pgdb.DB
	chainID int64
}

func NewOrders(db *pgdb.DB, chainID int64) data.Orders {
	return orders{db: db, chainID: chainID}
}

func (q orders) Get(kind data.OrderKind, orderHash string) (*data.Order, error) {
	var result data.Order
	stmt := squirrel.Select("*").From(ordersTable).
		Where(squirrel.Eq{"chain_id": q.chainID, "kind": kind, "order_hash": orderHash})

	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to select order")
	}
	return &result, nil
}

func (q orders) Select(selector data.OrdersSelector) ([]data.Order, error) {
	stmt := q.applySelector(squirrel.Select("*").From(ordersTable), selector)
	if selector.PageParams != nil {
		stmt = selector.PageParams.ApplyTo(stmt, "price", "published_at", "order_hash")
	} else {
		stmt = stmt.OrderBy("price ASC", "published_at ASC", "order_hash ASC")
	}

	var result []data.Order
	err := q.db.Select(&result, stmt)
	return result, errors.Wrap(err, "failed to select orders")
}

func (q orders) Count(selector data.OrdersSelector) (int64, error) {
	stmt := q.applySelector(squirrel.Select("COUNT(*)").From(ordersTable), selector)

	var result struct {
		Count int64 `db:"count"`
	}
	if err := q.db.Get(&result.Count, stmt); err != nil {
		return 0, errors.Wrap(err, "failed to count orders")
	}
	return result.Count, nil
}

func (q orders) CountOpenBySigner(kind data.OrderKind, signer string) (int64, error) {
	return q.Count(data.OrdersSelector{Kind: kind, Status: data.StatusOpen, Signer: signer})
}

func (q orders) BestOpen(selector data.BestSelector) (*data.Order, error) {
	stmt := squirrel.Select("*").From(ordersTable).
		Where(squirrel.Eq{
			"chain_id": q.chainID,
			"kind":     selector.Kind,
			"status":   data.StatusOpen,
			"resource": selector.Resource,
		}).
		OrderBy("price ASC", "published_at ASC", "order_hash ASC").
		Limit(1)

	for column, candidate := range selector.Restrictions {
		stmt = stmt.Where(squirrel.Eq{column: []string{data.NullAddress, candidate}})
	}
	if len(selector.RequiredTag) > 0 {
		stmt = stmt.Where(squirrel.Expr("tag_array @> ?", pq.Int64Array(selector.RequiredTag)))
	}

	var result data.Order
	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to select best open order")
	}
	return &result, nil
}

func (q orders) Save(order data.Order) (*data.Order, bool, error) {
	order.ChainID = q.chainID
	stmt := squirrel.Insert(ordersTable).SetMap(structs.Map(order)).
		Suffix(`ON CONFLICT (chain_id, kind, order_hash) DO UPDATE
			SET status = EXCLUDED.status,
			    signer = EXCLUDED.signer,
			    signature = EXCLUDED.signature,
			    remaining = EXCLUDED.remaining,
			    tag_array = EXCLUDED.tag_array,
			    published_at = EXCLUDED.published_at
			WHERE orders.status = 'dead'
			RETURNING *`)

	var result data.Order
	if err := q.db.Get(&result, stmt); err != nil {
		// ON CONFLICT ... WHERE skipped the row: a live record holds the hash
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "failed to save order")
	}
	return &result, true, nil
}

func (q orders) MarkDead(kind data.OrderKind, orderHashes []string) ([]data.Order, error) {
	if len(orderHashes) == 0 {
		return nil, nil
	}

	stmt := squirrel.Update(ordersTable).
		SetMap(map[string]interface{}{"status": data.StatusDead, "remaining": "0"}).
		Where(squirrel.Eq{
			"chain_id":   q.chainID,
			"kind":       kind,
			"order_hash": orderHashes,
			"status":     data.StatusOpen,
		}).
		Suffix("RETURNING *")

	var result []data.Order
	err := q.db.Select(&result, stmt)
	return result, errors.Wrap(err, "failed to mark orders dead")
}

func (q orders) Close(kind data.OrderKind, orderHash string) (*data.Order, error) {
	stmt := squirrel.Update(ordersTable).
		SetMap(map[string]interface{}{"status": data.StatusCanceled, "remaining": "0"}).
		Where(squirrel.Eq{
			"chain_id":   q.chainID,
			"kind":       kind,
			"order_hash": orderHash,
			"status":     data.StatusOpen,
		}).
		Suffix("RETURNING *")

	var result data.Order
	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to close order")
	}
	return &result, nil
}

func (q orders) ClampRemaining(kind data.OrderKind, orderHash string, observed string) (*data.Order, error) {
	// remaining only ever shrinks; replayed events are therefore idempotent
	stmt := squirrel.Update(ordersTable).
		Set("remaining", squirrel.Expr("LEAST(remaining, ?::numeric)", observed)).
		Set("status", squirrel.Expr("CASE WHEN LEAST(remaining, ?::numeric) = 0 THEN 'filled' ELSE status END", observed)).
		Where(squirrel.Eq{
			"chain_id":   q.chainID,
			"kind":       kind,
			"order_hash": orderHash,
			"status":     data.StatusOpen,
		}).
		Suffix("RETURNING *")

	var result data.Order
	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to clamp order remaining")
	}
	return &result, nil
}

func (q orders) Delete(kind data.OrderKind, orderHashes []string) error {
	if len(orderHashes) == 0 {
		return nil
	}

	stmt := squirrel.Delete(ordersTable).
		Where(squirrel.Eq{"chain_id": q.chainID, "kind": kind, "order_hash": orderHashes})
	err := q.db.Exec(stmt)
	return errors.Wrap(err, "failed to delete orders")
}

func (q orders) applySelector(stmt squirrel.SelectBuilder, s data.OrdersSelector) squirrel.SelectBuilder {
	stmt = stmt.Where(squirrel.Eq{"chain_id": q.chainID})
	if s.Kind != "" {
		stmt = stmt.Where(squirrel.Eq{"kind": s.Kind})
	}
	if s.Status != "" {
		stmt = stmt.Where(squirrel.Eq{"status": s.Status})
	}
	if s.Signer != "" {
		stmt = stmt.Where(squirrel.Eq{"signer": s.Signer})
	}
	if s.Resource != "" {
		stmt = stmt.Where(squirrel.Eq{"resource": s.Resource})
	}
	if s.App != "" {
		stmt = stmt.Where(squirrel.Eq{"app": s.App})
	}
	if s.Dataset != "" {
		stmt = stmt.Where(squirrel.Eq{"dataset": s.Dataset})
	}
	if s.Workerpool != "" {
		stmt = stmt.Where(squirrel.Eq{"workerpool": s.Workerpool})
	}
	if s.Requester != "" {
		stmt = stmt.Where(squirrel.Eq{"requester": s.Requester})
	}
	if s.Category != nil {
		stmt = stmt.Where(squirrel.Eq{"category": *s.Category})
	}
	if s.MinRemaining != "" {
		stmt = stmt.Where(squirrel.Expr("remaining >= ?::numeric", s.MinRemaining))
	}
	if len(s.RequiredTag) > 0 {
		stmt = stmt.Where(squirrel.Expr("tag_array @> ?", pq.Int64Array(s.RequiredTag)))
	}
	if len(s.MaxTag) > 0 {
		stmt = stmt.Where(squirrel.Expr("tag_array <@ ?", pq.Int64Array(s.MaxTag)))
	}
	if s.AppMaxPriceBelow != "" {
		stmt = stmt.Where(squirrel.Expr("app_max_price < ?::numeric", s.AppMaxPriceBelow))
	}
	if s.DatasetMaxPriceBelow != "" {
		stmt = stmt.Where(squirrel.Expr("dataset_max_price < ?::numeric", s.DatasetMaxPriceBelow))
	}
	if s.RequesterRestrict != "" {
		stmt = stmt.Where(squirrel.Eq{"requester_restrict": s.RequesterRestrict})
	}
	if s.Restricted {
		stmt = stmt.Where(squirrel.Expr(
			"(app_restrict <> ? OR dataset_restrict <> ? OR workerpool_restrict <> ?)",
			data.NullAddress, data.NullAddress, data.NullAddress))
	}
	return stmt
}
