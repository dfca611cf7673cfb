package orderbook

import (
	"math/big"

	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// requestView is the slice of a request order the matching predicates need,
// shared between the publish-time strict check and the cleanup-time re-check.
type requestView struct {
	app        string
	dataset    string
	workerpool string
	requester  string

	appMax     *big.Int
	datasetMax *big.Int

	tee bool
}

func viewOfSigned(o SignedOrder) requestView {
	return requestView{
		app:        data.Addr(o.App),
		dataset:    data.Addr(o.Dataset),
		workerpool: data.Addr(o.Workerpool),
		requester:  data.Addr(o.Requester),
		appMax:     o.AppMaxPrice,
		datasetMax: o.DatasetMaxPrice,
		tee:        HasBit(o.Tag, TagBitTEE),
	}
}

func viewOfRecord(o data.Order) requestView {
	tee := false
	for _, b := range o.TagArray {
		if b == TagBitTEE {
			tee = true
			break
		}
	}
	return requestView{
		app:        o.App,
		dataset:    o.Dataset,
		workerpool: o.Workerpool,
		requester:  o.Requester,
		appMax:     mustBig(o.AppMaxPrice),
		datasetMax: mustBig(o.DatasetMaxPrice),
		tee:        tee,
	}
}

// matchableApp reports whether at least one open app order can serve the
// request right now: cheapest compatible counter-order exists and fits under
// the request's app price ceiling.
func (b *Book) matchableApp(v requestView) (bool, error) {
	sel := data.BestSelector{
		Kind:     data.KindApp,
		Resource: v.app,
		Restrictions: map[string]string{
			"dataset_restrict":    v.dataset,
			"workerpool_restrict": v.workerpool,
			"requester_restrict":  v.requester,
		},
	}
	if v.tee {
		sel.RequiredTag = []int64{TagBitTEE}
	}

	best, err := b.orders.BestOpen(sel)
	if err != nil {
		return false, errors.Wrap(err, "failed to find best app order")
	}
	if best == nil {
		return false, nil
	}
	return v.appMax.Cmp(mustBig(best.Price)) >= 0, nil
}

// matchableDataset is the dataset leg of the same check. Only meaningful when
// the request names a dataset.
func (b *Book) matchableDataset(v requestView) (bool, error) {
	best, err := b.orders.BestOpen(data.BestSelector{
		Kind:     data.KindDataset,
		Resource: v.dataset,
		Restrictions: map[string]string{
			"app_restrict":        v.app,
			"workerpool_restrict": v.workerpool,
			"requester_restrict":  v.requester,
		},
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to find best dataset order")
	}
	if best == nil {
		return false, nil
	}
	return v.datasetMax.Cmp(mustBig(best.Price)) >= 0, nil
}

func (b *Book) matchableLeg(kind data.OrderKind, v requestView) (bool, error) {
	if kind == data.KindDataset {
		return b.matchableDataset(v)
	}
	return b.matchableApp(v)
}
