package requests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestNewPublishOrderApp(t *testing.T) {
	body := `{
		"app": "0x6Ba1A2F1b44c5B9ADbB9EeF23bF419a4bc8ee657",
		"appprice": "3",
		"volume": "1000",
		"tag": "0x0000000000000000000000000000000000000000000000000000000000000001",
		"salt": "0x0000000000000000000000000000000000000000000000000000000000cafe01",
		"sign": "0x` + strings.Repeat("ab", 65) + `"
	}`
	r := withURLParams(
		httptest.NewRequest(http.MethodPost, "/orderbook/app", strings.NewReader(body)),
		map[string]string{"kind": "app"},
	)

	order, err := NewPublishOrder(r)
	require.NoError(t, err)

	assert.Equal(t, data.KindApp, order.Kind)
	assert.Equal(t, common.HexToAddress("0x6Ba1A2F1b44c5B9ADbB9EeF23bF419a4bc8ee657"), order.Resource)
	assert.Equal(t, "3", order.Price.String())
	assert.Equal(t, "1000", order.Volume.String())
	assert.Len(t, order.Signature, 65)
	assert.Equal(t, uint64(1), order.Tag.Big().Uint64())
}

func TestNewPublishOrderRequest(t *testing.T) {
	body := `{
		"app": "0x6Ba1A2F1b44c5B9ADbB9EeF23bF419a4bc8ee657",
		"appmaxprice": "10",
		"datasetmaxprice": "0",
		"workerpoolmaxprice": "100",
		"requester": "0x0513bD6E3cfB10bda6D46b06a8f0a169296b4c87",
		"category": 5,
		"volume": "2",
		"salt": "0x000000000000000000000000000000000000000000000000000000000000beef",
		"sign": "0x` + strings.Repeat("cd", 65) + `"
	}`
	r := withURLParams(
		httptest.NewRequest(http.MethodPost, "/orderbook/request", strings.NewReader(body)),
		map[string]string{"kind": "request"},
	)

	order, err := NewPublishOrder(r)
	require.NoError(t, err)

	assert.Equal(t, data.KindRequest, order.Kind)
	assert.Equal(t, "10", order.AppMaxPrice.String())
	assert.Equal(t, "100", order.WorkerpoolMaxPrice.String())
	assert.EqualValues(t, 5, order.Category)
	assert.Equal(t, common.Address{}, order.Resource)
	assert.Nil(t, order.Price)
}

func TestNewPublishOrderRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		kind string
		body string
	}{
		{"bad kind", "bogus", `{}`},
		{"not json", "app", `nope`},
		{"bad address", "app", `{"app": "not-an-address"}`},
		{"bad amount", "app", `{"app": "0x6Ba1A2F1b44c5B9ADbB9EeF23bF419a4bc8ee657", "appprice": "1.5"}`},
		{"bad tag", "app", `{"app": "0x6Ba1A2F1b44c5B9ADbB9EeF23bF419a4bc8ee657", "tag": "0x01"}`},
		{"bad sign", "app", `{"app": "0x6Ba1A2F1b44c5B9ADbB9EeF23bF419a4bc8ee657", "sign": "zz"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := withURLParams(
				httptest.NewRequest(http.MethodPost, "/orderbook/"+tc.kind, strings.NewReader(tc.body)),
				map[string]string{"kind": tc.kind},
			)
			_, err := NewPublishOrder(r)
			require.Error(t, err)
			assert.IsType(t, orderbook.ValidationError{}, err)
		})
	}
}

func TestNewUnpublishOrders(t *testing.T) {
	hash := "0x" + strings.Repeat("ab", 32)
	r := withURLParams(
		httptest.NewRequest(http.MethodDelete, "/orderbook/app",
			strings.NewReader(`{"target": "hash", "order_hash": "`+hash+`"}`)),
		map[string]string{"kind": "app"},
	)

	req, err := NewUnpublishOrders(r)
	require.NoError(t, err)
	assert.Equal(t, orderbook.TargetHash, req.Target)
	assert.Equal(t, hash, req.Ref)

	r = withURLParams(
		httptest.NewRequest(http.MethodDelete, "/orderbook/app",
			strings.NewReader(`{"target": "all", "resource": "0x6Ba1A2F1b44c5B9ADbB9EeF23bF419a4bc8ee657"}`)),
		map[string]string{"kind": "app"},
	)
	req, err = NewUnpublishOrders(r)
	require.NoError(t, err)
	assert.Equal(t, orderbook.TargetAll, req.Target)
	assert.Equal(t, "0x6ba1a2f1b44c5b9adbb9eef23bf419a4bc8ee657", req.Ref)

	r = withURLParams(
		httptest.NewRequest(http.MethodDelete, "/orderbook/app",
			strings.NewReader(`{"target": "sometimes"}`)),
		map[string]string{"kind": "app"},
	)
	_, err = NewUnpublishOrders(r)
	require.Error(t, err)
	assert.IsType(t, orderbook.ValidationError{}, err)
}

func TestNewListOrders(t *testing.T) {
	r := withURLParams(
		httptest.NewRequest(http.MethodGet,
			"/orderbook/request?filter[status]=open&filter[requester]=0xABC0000000000000000000000000000000000001&page[limit]=25", nil),
		map[string]string{"kind": "request"},
	)

	sel, err := NewListOrders(r)
	require.NoError(t, err)
	assert.Equal(t, data.KindRequest, sel.Kind)
	assert.Equal(t, data.StatusOpen, sel.Status)
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", sel.Requester)
	require.NotNil(t, sel.PageParams)
	assert.EqualValues(t, 25, sel.PageParams.Limit)

	r = withURLParams(
		httptest.NewRequest(http.MethodGet, "/orderbook/request?filter[status]=sideways", nil),
		map[string]string{"kind": "request"},
	)
	_, err = NewListOrders(r)
	require.Error(t, err)
	assert.IsType(t, orderbook.ValidationError{}, err)
}

func TestNewListOrdersTagAndRestrictFilters(t *testing.T) {
	minTag := "0x" + strings.Repeat("0", 60) + "0101"
	r := withURLParams(
		httptest.NewRequest(http.MethodGet,
			"/orderbook/app?filter[min_tag]="+minTag+
				"&filter[max_tag]="+minTag+
				"&filter[requester_restrict]=0xABC0000000000000000000000000000000000001", nil),
		map[string]string{"kind": "app"},
	)

	sel, err := NewListOrders(r)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 9}, sel.RequiredTag)
	assert.Equal(t, []int64{1, 9}, sel.MaxTag)
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", sel.RequesterRestrict)

	r = withURLParams(
		httptest.NewRequest(http.MethodGet, "/orderbook/app?filter[min_tag]=0x01", nil),
		map[string]string{"kind": "app"},
	)
	_, err = NewListOrders(r)
	require.Error(t, err)
	assert.IsType(t, orderbook.ValidationError{}, err)
}
