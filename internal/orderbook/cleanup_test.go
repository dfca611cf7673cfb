package orderbook

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdersMatchedClampsRemaining(t *testing.T) {
	f := newFixture()
	appHash := common.HexToHash("0xa1")
	reqHash := common.HexToHash("0xb1")

	f.orders.seed(openOrder(data.KindApp, data.Hash(appHash), addr(10), addr(11), "5"))
	f.orders.seed(openRequest(data.Hash(reqHash), addr(30), addr(10), "10"))

	f.chain.consumed[appHash] = big.NewInt(4)
	f.chain.consumed[reqHash] = big.NewInt(4)

	deal := MatchedDeal{
		DealID:      common.HexToHash("0xd1"),
		AppHash:     appHash,
		RequestHash: reqHash,
		Volume:      big.NewInt(4),
		BlockNumber: 100,
	}
	require.NoError(t, f.book.OrdersMatched(context.Background(), deal))

	app, _ := f.orders.Get(data.KindApp, data.Hash(appHash))
	assert.Equal(t, "6", app.Remaining)
	assert.Equal(t, data.StatusOpen, app.Status)

	stored, err := f.book.GetDeal(data.Hash(common.HexToHash("0xd1")))
	require.NoError(t, err)
	assert.Equal(t, data.Addr(addr(10)), stored.App)
	assert.Equal(t, data.Addr(addr(30)), stored.Requester)
	assert.Contains(t, f.notifier.names(), "deal_created")

	// a replayed event is a no-op: same chain state, same deal id
	before := len(f.notifier.events)
	require.NoError(t, f.book.OrdersMatched(context.Background(), deal))
	app, _ = f.orders.Get(data.KindApp, data.Hash(appHash))
	assert.Equal(t, "6", app.Remaining)
	for _, e := range f.notifier.events[before:] {
		assert.NotEqual(t, "deal_created", e.Name)
	}
}

func TestOrdersMatchedFillsExhaustedOrder(t *testing.T) {
	f := newFixture()
	appHash := common.HexToHash("0xa1")
	f.orders.seed(openOrder(data.KindApp, data.Hash(appHash), addr(10), addr(11), "5"))
	f.chain.consumed[appHash] = big.NewInt(10)

	require.NoError(t, f.book.OrdersMatched(context.Background(), MatchedDeal{
		DealID:  common.HexToHash("0xd2"),
		AppHash: appHash,
		Volume:  big.NewInt(10),
	}))

	app, _ := f.orders.Get(data.KindApp, data.Hash(appHash))
	assert.Equal(t, "0", app.Remaining)
	assert.Equal(t, data.StatusFilled, app.Status)
	assert.Contains(t, f.notifier.names(), "app_filled")
}

func TestOrdersMatchedNeverRaisesRemaining(t *testing.T) {
	f := newFixture()
	appHash := common.HexToHash("0xa1")
	o := openOrder(data.KindApp, data.Hash(appHash), addr(10), addr(11), "5")
	o.Remaining = "2"
	f.orders.seed(o)

	// chain reports less consumption than the store already applied
	f.chain.consumed[appHash] = big.NewInt(1)

	require.NoError(t, f.book.OrdersMatched(context.Background(), MatchedDeal{
		DealID:  common.HexToHash("0xd3"),
		AppHash: appHash,
		Volume:  big.NewInt(1),
	}))

	app, _ := f.orders.Get(data.KindApp, data.Hash(appHash))
	assert.Equal(t, "2", app.Remaining)
}

func TestOrderClosedCascadesToDependents(t *testing.T) {
	f := newFixture()
	appHash := common.HexToHash("0xa1")
	app := addr(10)
	f.orders.seed(openOrder(data.KindApp, data.Hash(appHash), app, addr(11), "5"))
	f.orders.seed(openRequest("0xr1", addr(30), app, "10"))

	require.NoError(t, f.book.OrderClosed(context.Background(), data.KindApp, appHash))

	closed, _ := f.orders.Get(data.KindApp, data.Hash(appHash))
	assert.Equal(t, data.StatusCanceled, closed.Status)

	req, _ := f.orders.Get(data.KindRequest, "0xr1")
	assert.Equal(t, data.StatusDead, req.Status)
	assert.Contains(t, f.notifier.names(), "app_canceled")
	assert.Contains(t, f.notifier.names(), "request_cleaned")
}

func TestOrderClosedKeepsServedDependents(t *testing.T) {
	f := newFixture()
	app := addr(10)
	cheap := common.HexToHash("0xa1")
	f.orders.seed(openOrder(data.KindApp, data.Hash(cheap), app, addr(11), "5"))
	f.orders.seed(openOrder(data.KindApp, "0xa2", app, addr(12), "8"))
	f.orders.seed(openRequest("0xr1", addr(30), app, "10"))

	// closing the cheap order leaves the 8-unit one, still under the ceiling
	require.NoError(t, f.book.OrderClosed(context.Background(), data.KindApp, cheap))

	req, _ := f.orders.Get(data.KindRequest, "0xr1")
	assert.Equal(t, data.StatusOpen, req.Status)
}

func TestCheaperBestNeverKillsDependents(t *testing.T) {
	f := newFixture()
	app := addr(10)
	f.orders.seed(openOrder(data.KindApp, "0xa1", app, addr(11), "8"))
	f.orders.seed(openRequest("0xr1", addr(30), app, "10"))

	// a cheaper counter-order arrives; the scan must be a no-op
	f.orders.seed(openOrder(data.KindApp, "0xa2", app, addr(12), "3"))
	require.NoError(t, f.book.CleanDependentRequests(context.Background(), data.KindApp, data.Addr(app)))

	req, _ := f.orders.Get(data.KindRequest, "0xr1")
	assert.Equal(t, data.StatusOpen, req.Status)
}

func TestCleanDependentsChecksTEESeparately(t *testing.T) {
	f := newFixture()
	app := addr(10)

	// plain best at 5, TEE best at 20
	f.orders.seed(openOrder(data.KindApp, "0xa1", app, addr(11), "5"))
	teeApp := openOrder(data.KindApp, "0xa2", app, addr(12), "20")
	teeApp.TagArray = []int64{TagBitTEE}
	f.orders.seed(teeApp)

	teeReq := openRequest("0xr1", addr(30), app, "10")
	teeReq.TagArray = []int64{TagBitTEE}
	f.orders.seed(teeReq)
	f.orders.seed(openRequest("0xr2", addr(31), app, "10"))

	require.NoError(t, f.book.CleanDependentRequests(context.Background(), data.KindApp, data.Addr(app)))

	// the TEE request cannot afford the TEE-capable order even though the
	// plain best is under its ceiling
	teeGot, _ := f.orders.Get(data.KindRequest, "0xr1")
	assert.Equal(t, data.StatusDead, teeGot.Status)
	plainGot, _ := f.orders.Get(data.KindRequest, "0xr2")
	assert.Equal(t, data.StatusOpen, plainGot.Status)
}

func TestStakeDecreased(t *testing.T) {
	f := newFixture()
	owner := addr(21)

	pool := openOrder(data.KindWorkerpool, "0xw1", addr(20), owner, "100")
	f.orders.seed(pool) // lock = 100*10*30% = 300

	req := openRequest("0xr1", owner, addr(10), "10") // cost = 10*10 = 100
	f.orders.seed(req)

	f.chain.stakes[owner] = big.NewInt(150)
	require.NoError(t, f.book.StakeDecreased(context.Background(), owner))

	gotPool, _ := f.orders.Get(data.KindWorkerpool, "0xw1")
	assert.Equal(t, data.StatusDead, gotPool.Status)
	gotReq, _ := f.orders.Get(data.KindRequest, "0xr1")
	assert.Equal(t, data.StatusOpen, gotReq.Status)

	f.chain.stakes[owner] = big.NewInt(50)
	require.NoError(t, f.book.StakeDecreased(context.Background(), owner))
	gotReq, _ = f.orders.Get(data.KindRequest, "0xr1")
	assert.Equal(t, data.StatusDead, gotReq.Status)
}

func TestOwnershipTransferred(t *testing.T) {
	f := newFixture()
	app, prev := addr(10), addr(11)
	f.orders.seed(openOrder(data.KindApp, "0xa1", app, prev, "5"))
	f.orders.seed(openRequest("0xr1", addr(30), app, "10"))

	require.NoError(t, f.book.OwnershipTransferred(context.Background(), data.KindApp, app, prev))

	gotApp, _ := f.orders.Get(data.KindApp, "0xa1")
	assert.Equal(t, data.StatusDead, gotApp.Status)
	gotReq, _ := f.orders.Get(data.KindRequest, "0xr1")
	assert.Equal(t, data.StatusDead, gotReq.Status)
}

func TestOwnershipTransferredIgnoresOtherSigners(t *testing.T) {
	f := newFixture()
	app := addr(10)
	f.orders.seed(openOrder(data.KindApp, "0xa1", app, addr(12), "5"))

	require.NoError(t, f.book.OwnershipTransferred(context.Background(), data.KindApp, app, addr(11)))

	got, _ := f.orders.Get(data.KindApp, "0xa1")
	assert.Equal(t, data.StatusOpen, got.Status)
}

func TestKYCRevoked(t *testing.T) {
	f := newFixture()
	revoked := addr(40)

	// order signed by the revoked address
	f.orders.seed(openOrder(data.KindApp, "0xa1", addr(10), revoked, "5"))

	// order restricted to the revoked requester
	restricted := openOrder(data.KindDataset, "0xd1", addr(13), addr(14), "5")
	restricted.RequesterRestrict = data.Addr(revoked)
	f.orders.seed(restricted)

	// order whose app restriction resolves to a resource the revoked owns
	targeted := openOrder(data.KindWorkerpool, "0xw1", addr(20), addr(21), "5")
	targeted.AppRestrict = data.Addr(addr(15))
	f.orders.seed(targeted)
	f.chain.setOwner(data.KindApp, addr(15), revoked)

	// unrelated order stays open
	f.orders.seed(openOrder(data.KindApp, "0xa2", addr(16), addr(17), "5"))

	require.NoError(t, f.book.KYCRevoked(context.Background(), revoked))

	for _, tc := range []struct {
		kind data.OrderKind
		hash string
		want data.OrderStatus
	}{
		{data.KindApp, "0xa1", data.StatusDead},
		{data.KindDataset, "0xd1", data.StatusDead},
		{data.KindWorkerpool, "0xw1", data.StatusDead},
		{data.KindApp, "0xa2", data.StatusOpen},
	} {
		got, _ := f.orders.Get(tc.kind, tc.hash)
		assert.Equal(t, tc.want, got.Status, "%s %s", tc.kind, tc.hash)
	}
}

func TestRecordCategoryIdempotent(t *testing.T) {
	f := newFixture()
	cat := data.Category{ChainID: testChainID, CatID: 3, Name: "XL"}

	require.NoError(t, f.book.RecordCategory(cat))
	require.NoError(t, f.book.RecordCategory(cat))

	created := 0
	for _, e := range f.notifier.events {
		if e.Name == "category_created" {
			created++
		}
	}
	assert.Equal(t, 1, created)

	got, err := f.book.GetCategory(3)
	require.NoError(t, err)
	assert.Equal(t, "XL", got.Name)
}
