package importing

// BatchItem is the in-memory unit the worker accumulates before a flush.
type BatchItem struct {
	Customer   Customer
	SourceHash string
}

// BatchFlushResult is the outcome of committing one batch.
type BatchFlushResult struct {
	Affected int64
	LastHash string
}
