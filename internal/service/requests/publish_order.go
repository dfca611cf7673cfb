package requests

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
)

// publishOrderBody carries the union of all four order payloads; the field
// names mirror the EIP-712 struct members the client signed over.
type publishOrderBody struct {
	App        string `json:"app"`
	Dataset    string `json:"dataset"`
	Workerpool string `json:"workerpool"`

	AppPrice        string `json:"appprice"`
	DatasetPrice    string `json:"datasetprice"`
	WorkerpoolPrice string `json:"workerpoolprice"`

	AppMaxPrice        string `json:"appmaxprice"`
	DatasetMaxPrice    string `json:"datasetmaxprice"`
	WorkerpoolMaxPrice string `json:"workerpoolmaxprice"`

	Requester   string `json:"requester"`
	Beneficiary string `json:"beneficiary"`
	Callback    string `json:"callback"`
	Params      string `json:"params"`

	Category int64 `json:"category"`
	Trust    int64 `json:"trust"`

	AppRestrict        string `json:"apprestrict"`
	DatasetRestrict    string `json:"datasetrestrict"`
	WorkerpoolRestrict string `json:"workerpoolrestrict"`
	RequesterRestrict  string `json:"requesterrestrict"`

	Tag    string `json:"tag"`
	Volume string `json:"volume"`
	Salt   string `json:"salt"`
	Sign   string `json:"sign"`
}

func NewPublishOrder(r *http.Request) (orderbook.SignedOrder, error) {
	kind := data.OrderKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		return orderbook.SignedOrder{}, orderbook.Validationf("unknown order kind %q", kind)
	}

	var body publishOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return orderbook.SignedOrder{}, orderbook.Validationf("invalid request body: %v", err)
	}

	p := &parser{}
	order := orderbook.SignedOrder{
		Kind: kind,

		App:                p.address("app", body.App),
		AppMaxPrice:        p.amount("appmaxprice", body.AppMaxPrice),
		Dataset:            p.address("dataset", body.Dataset),
		DatasetMaxPrice:    p.amount("datasetmaxprice", body.DatasetMaxPrice),
		Workerpool:         p.address("workerpool", body.Workerpool),
		WorkerpoolMaxPrice: p.amount("workerpoolmaxprice", body.WorkerpoolMaxPrice),
		Requester:          p.address("requester", body.Requester),
		Beneficiary:        p.address("beneficiary", body.Beneficiary),
		Callback:           p.address("callback", body.Callback),
		Params:             body.Params,

		Category: body.Category,
		Trust:    body.Trust,

		AppRestrict:        p.address("apprestrict", body.AppRestrict),
		DatasetRestrict:    p.address("datasetrestrict", body.DatasetRestrict),
		WorkerpoolRestrict: p.address("workerpoolrestrict", body.WorkerpoolRestrict),
		RequesterRestrict:  p.address("requesterrestrict", body.RequesterRestrict),

		Tag:       p.hash("tag", body.Tag),
		Volume:    p.amount("volume", body.Volume),
		Salt:      p.hash("salt", body.Salt),
		Signature: p.signature("sign", body.Sign),
	}

	switch kind {
	case data.KindApp:
		order.Resource, order.Price = order.App, p.amount("appprice", body.AppPrice)
	case data.KindDataset:
		order.Resource, order.Price = order.Dataset, p.amount("datasetprice", body.DatasetPrice)
	case data.KindWorkerpool:
		order.Resource, order.Price = order.Workerpool, p.amount("workerpoolprice", body.WorkerpoolPrice)
	}

	if p.err != nil {
		return orderbook.SignedOrder{}, p.err
	}
	return order, nil
}

// parser accumulates the first field error so callers report exactly one
// problem per attempt.
type parser struct {
	err error
}

func (p *parser) address(name, raw string) common.Address {
	if raw == "" || p.err != nil {
		return common.Address{}
	}
	if !common.IsHexAddress(raw) {
		p.err = orderbook.Validationf("%s must be a hex address", name)
		return common.Address{}
	}
	return common.HexToAddress(raw)
}

func (p *parser) amount(name, raw string) *big.Int {
	if raw == "" || p.err != nil {
		return nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		p.err = orderbook.Validationf("%s must be a decimal integer", name)
		return nil
	}
	return v
}

func (p *parser) hash(name, raw string) common.Hash {
	if raw == "" || p.err != nil {
		return common.Hash{}
	}
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) != common.HashLength {
		p.err = orderbook.Validationf("%s must be a 32-byte hex string", name)
		return common.Hash{}
	}
	return common.BytesToHash(b)
}

func (p *parser) signature(name, raw string) []byte {
	if raw == "" || p.err != nil {
		return nil
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		p.err = orderbook.Validationf("%s must be a hex string", name)
		return nil
	}
	return b
}
