package zfixture

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tidwall/btree"

	"github.com/riftdb/zheap/pkg/zheap"
)

type undoEntry struct {
	ptr zheap.UndoPtr
	rec zheap.UndoRecord
}

func lessUndoEntry(a, b undoEntry) bool {
	if a.ptr.Block != b.ptr.Block {
		return a.ptr.Block < b.ptr.Block
	}
	return a.ptr.Offset < b.ptr.Offset
}

// UndoLog is an in-memory zheap.UndoStore, keyed by undo pointer and
// ordered the way a real per-page undo log would be. It tracks
// outstanding fetches so a test can assert the resource-release
// invariant every predicate call promises: every Fetch balanced by
// exactly one Release.
type UndoLog struct {
	mu          sync.Mutex
	entries     *btree.BTreeG[undoEntry]
	discarded   map[zheap.UndoPtr]bool
	outstanding atomic.Int64
}

// NewUndoLog returns an empty undo log.
func NewUndoLog() *UndoLog {
	return &UndoLog{
		entries:   btree.NewBTreeG(lessUndoEntry),
		discarded: map[zheap.UndoPtr]bool{},
	}
}

// Put installs the undo record found at ptr.
func (u *UndoLog) Put(ptr zheap.UndoPtr, rec zheap.UndoRecord) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.entries.Set(undoEntry{ptr: ptr, rec: rec})
}

// Discard marks ptr as reclaimed by undo retention: Fetch reports it as
// gone rather than an error, matching a horizon that has advanced past
// the pointer.
func (u *UndoLog) Discard(ptr zheap.UndoPtr) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.discarded[ptr] = true
}

func (u *UndoLog) Fetch(ptr zheap.UndoPtr, tid zheap.TupleID, prevUndoXid zheap.Xid) (*zheap.UndoRecord, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.discarded[ptr] {
		return nil, nil
	}
	item, ok := u.entries.Get(undoEntry{ptr: ptr})
	if !ok {
		return nil, fmt.Errorf("zfixture: no undo record at block %d offset %d for tuple %+v",
			ptr.Block, ptr.Offset, tid)
	}
	u.outstanding.Add(1)
	rec := item.rec
	return &rec, nil
}

func (u *UndoLog) Release(rec *zheap.UndoRecord) {
	if rec == nil {
		return
	}
	u.outstanding.Add(-1)
}

// Outstanding returns the number of fetched-but-unreleased records. A
// caller should observe zero once a top-level predicate call returns.
func (u *UndoLog) Outstanding() int64 {
	return u.outstanding.Load()
}

var _ zheap.UndoStore = (*UndoLog)(nil)
