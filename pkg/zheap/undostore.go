package zheap

// UndoStore fetches and releases undo records for a table's undo log.
// Fetch is idempotent: the same pointer may be fetched repeatedly, and
// every successful Fetch must be paired with exactly one Release,
// including on error and panic-unwind paths inside the walker.
type UndoStore interface {
	// Fetch returns the undo record at ptr describing tid's state,
	// or nil (with no error) when ptr has been discarded because the
	// horizon has advanced past it. prevUndoXid is an advisory filter:
	// when non-zero, implementations may use it to validate they
	// landed on the expected chain after a chain switch, but must not
	// require it to be set.
	Fetch(ptr UndoPtr, tid TupleID, prevUndoXid Xid) (*UndoRecord, error)
	// Release returns rec's resources. Called exactly once per
	// successful Fetch, even when rec is nil.
	Release(rec *UndoRecord)
}
