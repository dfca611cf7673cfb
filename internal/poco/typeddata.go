package poco

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Hasher computes the canonical EIP-712 hash of a signed order and recovers
// signatures against it. The domain is pinned to the hub contract.
type Hasher struct {
	domain apitypes.TypedDataDomain
}

func NewHasher(chainID int64, hub common.Address) *Hasher {
	return &Hasher{
		domain: apitypes.TypedDataDomain{
			Name:              "iExecODB",
			Version:           "5.0.0",
			ChainId:           math.NewHexOrDecimal256(chainID),
			VerifyingContract: hub.Hex(),
		},
	}
}

var domainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

var orderTypes = map[data.OrderKind]struct {
	primary string
	fields  []apitypes.Type
}{
	data.KindApp: {"AppOrder", []apitypes.Type{
		{Name: "app", Type: "address"},
		{Name: "appprice", Type: "uint256"},
		{Name: "volume", Type: "uint256"},
		{Name: "tag", Type: "bytes32"},
		{Name: "datasetrestrict", Type: "address"},
		{Name: "workerpoolrestrict", Type: "address"},
		{Name: "requesterrestrict", Type: "address"},
		{Name: "salt", Type: "bytes32"},
	}},
	data.KindDataset: {"DatasetOrder", []apitypes.Type{
		{Name: "dataset", Type: "address"},
		{Name: "datasetprice", Type: "uint256"},
		{Name: "volume", Type: "uint256"},
		{Name: "tag", Type: "bytes32"},
		{Name: "apprestrict", Type: "address"},
		{Name: "workerpoolrestrict", Type: "address"},
		{Name: "requesterrestrict", Type: "address"},
		{Name: "salt", Type: "bytes32"},
	}},
	data.KindWorkerpool: {"WorkerpoolOrder", []apitypes.Type{
		{Name: "workerpool", Type: "address"},
		{Name: "workerpoolprice", Type: "uint256"},
		{Name: "volume", Type: "uint256"},
		{Name: "tag", Type: "bytes32"},
		{Name: "category", Type: "uint256"},
		{Name: "trust", Type: "uint256"},
		{Name: "apprestrict", Type: "address"},
		{Name: "datasetrestrict", Type: "address"},
		{Name: "requesterrestrict", Type: "address"},
		{Name: "salt", Type: "bytes32"},
	}},
	data.KindRequest: {"RequestOrder", []apitypes.Type{
		{Name: "app", Type: "address"},
		{Name: "appmaxprice", Type: "uint256"},
		{Name: "dataset", Type: "address"},
		{Name: "datasetmaxprice", Type: "uint256"},
		{Name: "workerpool", Type: "address"},
		{Name: "workerpoolmaxprice", Type: "uint256"},
		{Name: "requester", Type: "address"},
		{Name: "volume", Type: "uint256"},
		{Name: "tag", Type: "bytes32"},
		{Name: "category", Type: "uint256"},
		{Name: "trust", Type: "uint256"},
		{Name: "beneficiary", Type: "address"},
		{Name: "callback", Type: "address"},
		{Name: "params", Type: "string"},
		{Name: "salt", Type: "bytes32"},
	}},
}

func (h *Hasher) Hash(order orderbook.SignedOrder) (common.Hash, error) {
	def, ok := orderTypes[order.Kind]
	if !ok {
		return common.Hash{}, errors.Errorf("no typed data for order kind %q", order.Kind)
	}

	typed := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			def.primary:    def.fields,
		},
		PrimaryType: def.primary,
		Domain:      h.domain,
		Message:     h.message(order),
	}

	digest, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to hash typed data")
	}
	return common.BytesToHash(digest), nil
}

func (h *Hasher) message(o orderbook.SignedOrder) apitypes.TypedDataMessage {
	switch o.Kind {
	case data.KindApp:
		return apitypes.TypedDataMessage{
			"app":                o.Resource.Hex(),
			"appprice":           o.Price.String(),
			"volume":             o.Volume.String(),
			"tag":                hexutil.Encode(o.Tag[:]),
			"datasetrestrict":    o.DatasetRestrict.Hex(),
			"workerpoolrestrict": o.WorkerpoolRestrict.Hex(),
			"requesterrestrict":  o.RequesterRestrict.Hex(),
			"salt":               hexutil.Encode(o.Salt[:]),
		}
	case data.KindDataset:
		return apitypes.TypedDataMessage{
			"dataset":            o.Resource.Hex(),
			"datasetprice":       o.Price.String(),
			"volume":             o.Volume.String(),
			"tag":                hexutil.Encode(o.Tag[:]),
			"apprestrict":        o.AppRestrict.Hex(),
			"workerpoolrestrict": o.WorkerpoolRestrict.Hex(),
			"requesterrestrict":  o.RequesterRestrict.Hex(),
			"salt":               hexutil.Encode(o.Salt[:]),
		}
	case data.KindWorkerpool:
		return apitypes.TypedDataMessage{
			"workerpool":        o.Resource.Hex(),
			"workerpoolprice":   o.Price.String(),
			"volume":            o.Volume.String(),
			"tag":               hexutil.Encode(o.Tag[:]),
			"category":          math.NewHexOrDecimal256(o.Category),
			"trust":             math.NewHexOrDecimal256(o.Trust),
			"apprestrict":       o.AppRestrict.Hex(),
			"datasetrestrict":   o.DatasetRestrict.Hex(),
			"requesterrestrict": o.RequesterRestrict.Hex(),
			"salt":              hexutil.Encode(o.Salt[:]),
		}
	default:
		return apitypes.TypedDataMessage{
			"app":                o.App.Hex(),
			"appmaxprice":        o.AppMaxPrice.String(),
			"dataset":            o.Dataset.Hex(),
			"datasetmaxprice":    o.DatasetMaxPrice.String(),
			"workerpool":         o.Workerpool.Hex(),
			"workerpoolmaxprice": o.WorkerpoolMaxPrice.String(),
			"requester":          o.Requester.Hex(),
			"volume":             o.Volume.String(),
			"tag":                hexutil.Encode(o.Tag[:]),
			"category":           math.NewHexOrDecimal256(o.Category),
			"trust":              math.NewHexOrDecimal256(o.Trust),
			"beneficiary":        o.Beneficiary.Hex(),
			"callback":           o.Callback.Hex(),
			"params":             o.Params,
			"salt":               hexutil.Encode(o.Salt[:]),
		}
	}
}

// Verify recovers the signature over the typed-data digest and compares the
// recovered address to the expected signer.
func (h *Hasher) Verify(signer common.Address, hash common.Hash, signature []byte) (bool, error) {
	if len(signature) != 65 {
		return false, errors.New("signature must be 65 bytes")
	}

	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return false, errors.Wrap(err, "failed to recover public key")
	}
	return crypto.PubkeyToAddress(*pub) == signer, nil
}
