package data

// Category is append-only reference data mirrored from the hub contract.
type Category struct {
	ID      int64 `structs:"-" db:"id" json:"-"`
	ChainID int64 `structs:"chain_id" db:"chain_id" json:"chain_id"`
	CatID   int64 `structs:"cat_id" db:"cat_id" json:"cat_id"`

	Name             string `structs:"name" db:"name" json:"name"`
	Description      string `structs:"description" db:"description" json:"description"`
	WorkClockTimeRef int64  `structs:"work_clock_time_ref" db:"work_clock_time_ref" json:"work_clock_time_ref"`

	BlockNumber uint64 `structs:"block_number" db:"block_number" json:"block_number"`
	TxHash      string `structs:"tx_hash" db:"tx_hash" json:"tx_hash"`
}

type Categories interface {
	Get(catID int64) (*Category, error)
	// Insert stores the category once; returns false on a duplicate cat id.
	Insert(category Category) (bool, error)
}
