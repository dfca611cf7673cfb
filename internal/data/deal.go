package data

import "time"

// Deal is an immutable snapshot of four matched orders, recorded once per
// on-chain OrdersMatched event.
type Deal struct {
	ID      int64  `structs:"-" db:"id" json:"-"`
	ChainID int64  `structs:"chain_id" db:"chain_id" json:"chain_id"`
	DealID  string `structs:"deal_id" db:"deal_id" json:"deal_id"`

	AppHash        string `structs:"app_hash" db:"app_hash" json:"app_hash"`
	DatasetHash    string `structs:"dataset_hash" db:"dataset_hash" json:"dataset_hash"`
	WorkerpoolHash string `structs:"workerpool_hash" db:"workerpool_hash" json:"workerpool_hash"`
	RequestHash    string `structs:"request_hash" db:"request_hash" json:"request_hash"`

	App             string `structs:"app" db:"app" json:"app"`
	AppOwner        string `structs:"app_owner" db:"app_owner" json:"app_owner"`
	AppPrice        string `structs:"app_price" db:"app_price" json:"app_price"`
	Dataset         string `structs:"dataset" db:"dataset" json:"dataset"`
	DatasetOwner    string `structs:"dataset_owner" db:"dataset_owner" json:"dataset_owner"`
	DatasetPrice    string `structs:"dataset_price" db:"dataset_price" json:"dataset_price"`
	Workerpool      string `structs:"workerpool" db:"workerpool" json:"workerpool"`
	WorkerpoolOwner string `structs:"workerpool_owner" db:"workerpool_owner" json:"workerpool_owner"`
	WorkerpoolPrice string `structs:"workerpool_price" db:"workerpool_price" json:"workerpool_price"`
	Requester       string `structs:"requester" db:"requester" json:"requester"`
	Beneficiary     string `structs:"beneficiary" db:"beneficiary" json:"beneficiary"`

	Category int64  `structs:"category" db:"category" json:"category"`
	Volume   string `structs:"volume" db:"volume" json:"volume"`

	BlockNumber uint64    `structs:"block_number" db:"block_number" json:"block_number"`
	TxHash      string    `structs:"tx_hash" db:"tx_hash" json:"tx_hash"`
	CreatedAt   time.Time `structs:"created_at" db:"created_at" json:"created_at"`
}

type Deals interface {
	Get(dealID string) (*Deal, error)
	// Insert stores the deal once; returns false when a record for the same
	// deal id already exists, so duplicate events never re-notify.
	Insert(deal Deal) (bool, error)
}
