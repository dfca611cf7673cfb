package orderbook

import (
	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// OrdersPage is the read-path result for listings.
type OrdersPage struct {
	Orders []data.Order
	Count  int64
}

func (b *Book) GetOrder(kind data.OrderKind, orderHash string) (*data.Order, error) {
	if !kind.Valid() {
		return nil, Validationf("unknown order kind %q", kind)
	}

	rec, err := b.orders.Get(kind, orderHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get order")
	}
	if rec == nil {
		return nil, NotFoundf("order %s not found", orderHash)
	}
	return rec, nil
}

func (b *Book) ListOrders(selector data.OrdersSelector) (OrdersPage, error) {
	if selector.Kind != "" && !selector.Kind.Valid() {
		return OrdersPage{}, Validationf("unknown order kind %q", selector.Kind)
	}

	orders, err := b.orders.Select(selector)
	if err != nil {
		return OrdersPage{}, errors.Wrap(err, "failed to select orders")
	}

	counted := selector
	counted.PageParams = nil
	count, err := b.orders.Count(counted)
	if err != nil {
		return OrdersPage{}, errors.Wrap(err, "failed to count orders")
	}

	return OrdersPage{Orders: orders, Count: count}, nil
}

func (b *Book) GetDeal(dealID string) (*data.Deal, error) {
	deal, err := b.deals.Get(dealID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deal")
	}
	if deal == nil {
		return nil, NotFoundf("deal %s not found", dealID)
	}
	return deal, nil
}

func (b *Book) GetCategory(catID int64) (*data.Category, error) {
	cat, err := b.categories.Get(catID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get category")
	}
	if cat == nil {
		return nil, NotFoundf("category %d not found", catID)
	}
	return cat, nil
}

// RecordCategory mirrors a CreateCategory event into reference data.
func (b *Book) RecordCategory(category data.Category) error {
	inserted, err := b.categories.Insert(category)
	if err != nil {
		return errors.Wrap(err, "failed to insert category")
	}
	if inserted {
		b.notifier.Notify("category_created", category)
	}
	return nil
}
