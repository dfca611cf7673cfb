package orderbook

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gridmarket/orderbook-svc/internal/data"
)

// SignedOrder is the normalized view of a signed payload of any kind. Fields
// irrelevant to the kind stay at their zero values and are ignored.
type SignedOrder struct {
	Kind data.OrderKind

	// Resource and Price describe app/dataset/workerpool orders.
	Resource common.Address
	Price    *big.Int

	// Request order fields.
	App                common.Address
	AppMaxPrice        *big.Int
	Dataset            common.Address
	DatasetMaxPrice    *big.Int
	Workerpool         common.Address
	WorkerpoolMaxPrice *big.Int
	Requester          common.Address
	Beneficiary        common.Address
	Callback           common.Address
	Params             string

	Category int64
	Trust    int64

	AppRestrict        common.Address
	DatasetRestrict    common.Address
	WorkerpoolRestrict common.Address
	RequesterRestrict  common.Address

	Tag    common.Hash
	Volume *big.Int

	Salt      common.Hash
	Signature []byte
}

func (o SignedOrder) validate() error {
	if !o.Kind.Valid() {
		return Validationf("unknown order kind %q", o.Kind)
	}
	if o.Volume == nil || o.Volume.Sign() <= 0 {
		return Validationf("volume must be a positive integer")
	}
	if len(o.Signature) != 65 {
		return Validationf("signature must be 65 bytes, got %d", len(o.Signature))
	}

	switch o.Kind {
	case data.KindRequest:
		if o.Requester == (common.Address{}) {
			return Validationf("requester must not be the null address")
		}
		if o.App == (common.Address{}) {
			return Validationf("app must not be the null address")
		}
		for name, p := range map[string]*big.Int{
			"appmaxprice":        o.AppMaxPrice,
			"datasetmaxprice":    o.DatasetMaxPrice,
			"workerpoolmaxprice": o.WorkerpoolMaxPrice,
		} {
			if p == nil || p.Sign() < 0 {
				return Validationf("%s must be a non-negative integer", name)
			}
		}
		if o.Category < 0 {
			return Validationf("category must be non-negative")
		}
	default:
		if o.Resource == (common.Address{}) {
			return Validationf("%s address must not be the null address", o.Kind)
		}
		if o.Price == nil || o.Price.Sign() < 0 {
			return Validationf("%sprice must be a non-negative integer", o.Kind)
		}
	}
	return nil
}

func dec(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func (o SignedOrder) toRecord(chainID int64, hash common.Hash, signer common.Address, remaining *big.Int, now time.Time) data.Order {
	rec := data.Order{
		ChainID:   chainID,
		Kind:      o.Kind,
		OrderHash: data.Hash(hash),
		Status:    data.StatusOpen,
		Signer:    data.Addr(signer),

		Resource: data.Addr(o.Resource),
		Price:    dec(o.Price),

		App:                data.Addr(o.App),
		AppMaxPrice:        dec(o.AppMaxPrice),
		Dataset:            data.Addr(o.Dataset),
		DatasetMaxPrice:    dec(o.DatasetMaxPrice),
		Workerpool:         data.Addr(o.Workerpool),
		WorkerpoolMaxPrice: dec(o.WorkerpoolMaxPrice),
		Requester:          data.Addr(o.Requester),
		Beneficiary:        data.Addr(o.Beneficiary),
		Callback:           data.Addr(o.Callback),
		Params:             o.Params,

		Category: o.Category,
		Trust:    o.Trust,

		AppRestrict:        data.Addr(o.AppRestrict),
		DatasetRestrict:    data.Addr(o.DatasetRestrict),
		WorkerpoolRestrict: data.Addr(o.WorkerpoolRestrict),
		RequesterRestrict:  data.Addr(o.RequesterRestrict),

		Tag:      data.Hash(o.Tag),
		TagArray: TagBits(o.Tag),

		Volume:    dec(o.Volume),
		Remaining: dec(remaining),

		Salt:      data.Hash(o.Salt),
		Signature: "0x" + common.Bytes2Hex(o.Signature),

		PublishedAt: now.UTC(),
	}
	return rec
}
