package requests

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/urlval/v4"
)

type listOrdersFilters struct {
	pgdb.OffsetPageParams

	Status       *string `filter:"status"`
	Signer       *string `filter:"signer"`
	Resource     *string `filter:"resource"`
	App          *string `filter:"app"`
	Dataset      *string `filter:"dataset"`
	Workerpool   *string `filter:"workerpool"`
	Requester    *string `filter:"requester"`
	Category     *int64  `filter:"category"`
	MinRemaining *string `filter:"min_remaining"`

	MinTag            *string `filter:"min_tag"`
	MaxTag            *string `filter:"max_tag"`
	RequesterRestrict *string `filter:"requester_restrict"`
}

func NewListOrders(r *http.Request) (data.OrdersSelector, error) {
	kind := data.OrderKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		return data.OrdersSelector{}, orderbook.Validationf("unknown order kind %q", kind)
	}

	var filters listOrdersFilters
	if err := urlval.Decode(r.URL.Query(), &filters); err != nil {
		return data.OrdersSelector{}, orderbook.Validationf("invalid query parameters: %v", err)
	}

	sel := data.OrdersSelector{
		Kind:     kind,
		Category: filters.Category,
	}
	if filters.Status != nil {
		status := data.OrderStatus(*filters.Status)
		switch status {
		case data.StatusOpen, data.StatusFilled, data.StatusCanceled, data.StatusDead:
		default:
			return data.OrdersSelector{}, orderbook.Validationf("unknown order status %q", status)
		}
		sel.Status = status
	}
	sel.Signer = lowered(filters.Signer)
	sel.Resource = lowered(filters.Resource)
	sel.App = lowered(filters.App)
	sel.Dataset = lowered(filters.Dataset)
	sel.Workerpool = lowered(filters.Workerpool)
	sel.Requester = lowered(filters.Requester)
	if filters.MinRemaining != nil {
		sel.MinRemaining = *filters.MinRemaining
	}
	if filters.MinTag != nil {
		if !hashPattern.MatchString(*filters.MinTag) {
			return data.OrdersSelector{}, orderbook.Validationf("invalid min_tag %q", *filters.MinTag)
		}
		sel.RequiredTag = orderbook.TagBits(common.HexToHash(*filters.MinTag))
	}
	if filters.MaxTag != nil {
		if !hashPattern.MatchString(*filters.MaxTag) {
			return data.OrdersSelector{}, orderbook.Validationf("invalid max_tag %q", *filters.MaxTag)
		}
		sel.MaxTag = orderbook.TagBits(common.HexToHash(*filters.MaxTag))
	}
	sel.RequesterRestrict = lowered(filters.RequesterRestrict)

	page := filters.OffsetPageParams
	sel.PageParams = &page
	return sel, nil
}

func lowered(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(*s)
}
