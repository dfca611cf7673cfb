package orderbook

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3"
)

// In-memory doubles of the data and chain ports, mirroring the store's
// semantics closely enough to exercise the book's logic without a database.

type ordersFake struct {
	byKey map[string]*data.Order
}

func newOrdersFake() *ordersFake {
	return &ordersFake{byKey: map[string]*data.Order{}}
}

func okey(kind data.OrderKind, hash string) string {
	return string(kind) + "|" + hash
}

func (f *ordersFake) seed(o data.Order) {
	cp := o
	f.byKey[okey(o.Kind, o.OrderHash)] = &cp
}

func (f *ordersFake) Get(kind data.OrderKind, orderHash string) (*data.Order, error) {
	if o, ok := f.byKey[okey(kind, orderHash)]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (f *ordersFake) Select(sel data.OrdersSelector) ([]data.Order, error) {
	var out []data.Order
	for _, o := range f.byKey {
		if matchesSelector(*o, sel) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderHash < out[j].OrderHash })
	return out, nil
}

func (f *ordersFake) Count(sel data.OrdersSelector) (int64, error) {
	list, _ := f.Select(sel)
	return int64(len(list)), nil
}

func (f *ordersFake) CountOpenBySigner(kind data.OrderKind, signer string) (int64, error) {
	return f.Count(data.OrdersSelector{Kind: kind, Status: data.StatusOpen, Signer: signer})
}

func (f *ordersFake) BestOpen(sel data.BestSelector) (*data.Order, error) {
	var best *data.Order
	for _, o := range f.byKey {
		if o.Kind != sel.Kind || o.Status != data.StatusOpen || o.Resource != sel.Resource {
			continue
		}
		if !containsBits(o.TagArray, sel.RequiredTag) {
			continue
		}
		if !passesRestrictions(*o, sel.Restrictions) {
			continue
		}
		if best == nil || lessByBest(*o, *best) {
			cp := *o
			best = &cp
		}
	}
	return best, nil
}

func (f *ordersFake) Save(o data.Order) (*data.Order, bool, error) {
	key := okey(o.Kind, o.OrderHash)
	if existing, ok := f.byKey[key]; ok && existing.Status != data.StatusDead {
		return nil, false, nil
	}
	cp := o
	f.byKey[key] = &cp
	res := cp
	return &res, true, nil
}

func (f *ordersFake) MarkDead(kind data.OrderKind, orderHashes []string) ([]data.Order, error) {
	var out []data.Order
	for _, h := range orderHashes {
		o, ok := f.byKey[okey(kind, h)]
		if !ok || o.Status != data.StatusOpen {
			continue
		}
		o.Status = data.StatusDead
		o.Remaining = "0"
		out = append(out, *o)
	}
	return out, nil
}

func (f *ordersFake) Close(kind data.OrderKind, orderHash string) (*data.Order, error) {
	o, ok := f.byKey[okey(kind, orderHash)]
	if !ok || o.Status != data.StatusOpen {
		return nil, nil
	}
	o.Status = data.StatusCanceled
	o.Remaining = "0"
	cp := *o
	return &cp, nil
}

func (f *ordersFake) ClampRemaining(kind data.OrderKind, orderHash string, observed string) (*data.Order, error) {
	o, ok := f.byKey[okey(kind, orderHash)]
	if !ok || o.Status != data.StatusOpen {
		return nil, nil
	}
	if num(observed).Cmp(num(o.Remaining)) < 0 {
		o.Remaining = observed
	}
	if num(o.Remaining).Sign() == 0 {
		o.Status = data.StatusFilled
	}
	cp := *o
	return &cp, nil
}

func (f *ordersFake) Delete(kind data.OrderKind, orderHashes []string) error {
	for _, h := range orderHashes {
		delete(f.byKey, okey(kind, h))
	}
	return nil
}

func matchesSelector(o data.Order, s data.OrdersSelector) bool {
	if s.Kind != "" && o.Kind != s.Kind {
		return false
	}
	if s.Status != "" && o.Status != s.Status {
		return false
	}
	if s.Signer != "" && o.Signer != s.Signer {
		return false
	}
	if s.Resource != "" && o.Resource != s.Resource {
		return false
	}
	if s.App != "" && o.App != s.App {
		return false
	}
	if s.Dataset != "" && o.Dataset != s.Dataset {
		return false
	}
	if s.Workerpool != "" && o.Workerpool != s.Workerpool {
		return false
	}
	if s.Requester != "" && o.Requester != s.Requester {
		return false
	}
	if s.Category != nil && o.Category != *s.Category {
		return false
	}
	if s.MinRemaining != "" && num(o.Remaining).Cmp(num(s.MinRemaining)) < 0 {
		return false
	}
	if !containsBits(o.TagArray, s.RequiredTag) {
		return false
	}
	if s.MaxTag != nil && !containsBits(s.MaxTag, o.TagArray) {
		return false
	}
	if s.AppMaxPriceBelow != "" && num(o.AppMaxPrice).Cmp(num(s.AppMaxPriceBelow)) >= 0 {
		return false
	}
	if s.DatasetMaxPriceBelow != "" && num(o.DatasetMaxPrice).Cmp(num(s.DatasetMaxPriceBelow)) >= 0 {
		return false
	}
	if s.RequesterRestrict != "" && o.RequesterRestrict != s.RequesterRestrict {
		return false
	}
	if s.Restricted {
		if o.AppRestrict == data.NullAddress &&
			o.DatasetRestrict == data.NullAddress &&
			o.WorkerpoolRestrict == data.NullAddress {
			return false
		}
	}
	return true
}

func passesRestrictions(o data.Order, restrictions map[string]string) bool {
	fields := map[string]string{
		"app_restrict":        o.AppRestrict,
		"dataset_restrict":    o.DatasetRestrict,
		"workerpool_restrict": o.WorkerpoolRestrict,
		"requester_restrict":  o.RequesterRestrict,
	}
	for column, candidate := range restrictions {
		restriction := fields[column]
		if restriction != data.NullAddress && restriction != candidate {
			return false
		}
	}
	return true
}

func lessByBest(a, b data.Order) bool {
	if c := num(a.Price).Cmp(num(b.Price)); c != 0 {
		return c < 0
	}
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.Before(b.PublishedAt)
	}
	return a.OrderHash < b.OrderHash
}

func containsBits(have []int64, want []int64) bool {
	set := map[int64]struct{}{}
	for _, b := range have {
		set[b] = struct{}{}
	}
	for _, b := range want {
		if _, ok := set[b]; !ok {
			return false
		}
	}
	return true
}

func num(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

type dealsFake struct {
	byID map[string]data.Deal
}

func newDealsFake() *dealsFake { return &dealsFake{byID: map[string]data.Deal{}} }

func (f *dealsFake) Get(dealID string) (*data.Deal, error) {
	if d, ok := f.byID[dealID]; ok {
		return &d, nil
	}
	return nil, nil
}

func (f *dealsFake) Insert(deal data.Deal) (bool, error) {
	if _, ok := f.byID[deal.DealID]; ok {
		return false, nil
	}
	f.byID[deal.DealID] = deal
	return true, nil
}

type categoriesFake struct {
	byID map[int64]data.Category
}

func newCategoriesFake() *categoriesFake { return &categoriesFake{byID: map[int64]data.Category{}} }

func (f *categoriesFake) Get(catID int64) (*data.Category, error) {
	if c, ok := f.byID[catID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *categoriesFake) Insert(category data.Category) (bool, error) {
	if _, ok := f.byID[category.CatID]; ok {
		return false, nil
	}
	f.byID[category.CatID] = category
	return true, nil
}

type chainFake struct {
	consumed map[common.Hash]*big.Int
	stakes   map[common.Address]*big.Int
	owners   map[string]common.Address
}

func newChainFake() *chainFake {
	return &chainFake{
		consumed: map[common.Hash]*big.Int{},
		stakes:   map[common.Address]*big.Int{},
		owners:   map[string]common.Address{},
	}
}

func (f *chainFake) setOwner(kind data.OrderKind, resource, owner common.Address) {
	f.owners[string(kind)+data.Addr(resource)] = owner
}

func (f *chainFake) Consumed(_ context.Context, orderHash common.Hash) (*big.Int, error) {
	if v, ok := f.consumed[orderHash]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (f *chainFake) Stake(_ context.Context, owner common.Address) (*big.Int, error) {
	if v, ok := f.stakes[owner]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (f *chainFake) ResourceOwner(_ context.Context, kind data.OrderKind, resource common.Address) (common.Address, error) {
	return f.owners[string(kind)+data.Addr(resource)], nil
}

// hasherFake derives a deterministic hash from the payload and accepts any
// 65-byte signature not starting with 0xff.
type hasherFake struct{}

func (hasherFake) Hash(o SignedOrder) (common.Hash, error) {
	return crypto.Keccak256Hash(
		[]byte(o.Kind),
		o.Resource.Bytes(), o.App.Bytes(), o.Dataset.Bytes(), o.Workerpool.Bytes(),
		o.Requester.Bytes(), o.Tag.Bytes(), o.Salt.Bytes(),
	), nil
}

func (hasherFake) Verify(_ common.Address, _ common.Hash, signature []byte) (bool, error) {
	return len(signature) == 65 && signature[0] != 0xff, nil
}

type whitelistFake struct {
	denied map[common.Address]struct{}
}

func (f *whitelistFake) IsWhitelisted(_ context.Context, address common.Address) (bool, error) {
	_, denied := f.denied[address]
	return !denied, nil
}

type notifierRec struct {
	events []Event
}

func (n *notifierRec) Notify(name string, payload interface{}) {
	n.events = append(n.events, Event{Name: name, Payload: payload})
}

func (n *notifierRec) names() []string {
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Name)
	}
	return out
}

type bookFixture struct {
	book     *Book
	orders   *ordersFake
	deals    *dealsFake
	cats     *categoriesFake
	chain    *chainFake
	notifier *notifierRec
}

const testChainID int64 = 134

func newFixture(opts ...func(*Opts)) *bookFixture {
	f := &bookFixture{
		orders:   newOrdersFake(),
		deals:    newDealsFake(),
		cats:     newCategoriesFake(),
		chain:    newChainFake(),
		notifier: &notifierRec{},
	}
	bo := Opts{
		Log:        logan.New().WithField("test", true),
		ChainID:    testChainID,
		Orders:     f.orders,
		Deals:      f.deals,
		Categories: f.cats,
		Chain:      f.chain,
		Hasher:     hasherFake{},
		Notifier:   f.notifier,
	}
	for _, opt := range opts {
		opt(&bo)
	}
	f.book = New(bo)
	return f
}

func addr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func sig() []byte {
	s := make([]byte, 65)
	s[0] = 0x01
	return s
}

func openOrder(kind data.OrderKind, hash string, resource, signer common.Address, price string) data.Order {
	return data.Order{
		ChainID:   testChainID,
		Kind:      kind,
		OrderHash: hash,
		Status:    data.StatusOpen,
		Signer:    data.Addr(signer),
		Resource:  data.Addr(resource),
		Price:     price,

		App:                data.NullAddress,
		Dataset:            data.NullAddress,
		Workerpool:         data.NullAddress,
		Requester:          data.NullAddress,
		Beneficiary:        data.NullAddress,
		Callback:           data.NullAddress,
		AppMaxPrice:        "0",
		DatasetMaxPrice:    "0",
		WorkerpoolMaxPrice: "0",
		AppRestrict:        data.NullAddress,
		DatasetRestrict:    data.NullAddress,
		WorkerpoolRestrict: data.NullAddress,
		RequesterRestrict:  data.NullAddress,

		Volume:      "10",
		Remaining:   "10",
		PublishedAt: time.Unix(1700000000, 0).UTC(),
	}
}

func openRequest(hash string, requester, app common.Address, appMax string) data.Order {
	o := openOrder(data.KindRequest, hash, common.Address{}, requester, "0")
	o.Resource = data.NullAddress
	o.App = data.Addr(app)
	o.AppMaxPrice = appMax
	o.Requester = data.Addr(requester)
	return o
}
