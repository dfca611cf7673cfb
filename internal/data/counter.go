package data

// Counter names for ingestion progress. Both advance monotonically.
const (
	CounterLastBlock       = "last_block"
	CounterCheckpointBlock = "checkpoint_block"
)

type Counters interface {
	Get(name string) (uint64, error)
	// Raise moves the named counter up to value; lower values are ignored so
	// replayed batches can never rewind progress.
	Raise(name string, value uint64) error
}
