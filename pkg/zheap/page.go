package zheap

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/riftdb/zheap/pkg/util"
)

// PageMetadata reads a page's transaction-slot table and per-tuple raw
// slot linkage from the page's opaque area. Header decoding proper
// (flags, slot index) lives on Tuple; PageMetadata supplies what the
// tuple header alone cannot: the slot table entries and the raw undo
// pointer a slot currently records, independent of whether the tuple
// referencing it is marked FlagInvalidXactSlot.
type PageMetadata interface {
	// SlotXid returns the raw xid recorded in slot. FrozenSlot always
	// returns InvalidXid.
	SlotXid(slot int) Xid
	// SlotUndoPtr returns the raw undo pointer recorded in slot.
	SlotUndoPtr(slot int) UndoPtr
	// SlotCid returns the command id recorded in slot for tid, when
	// the page still carries a per-tuple cid cache, and ok=false when
	// it must be recovered from undo instead.
	SlotCid(slot int, tid TupleID) (cid Cid, ok bool)
}

// GetRawUndoPtr returns the authoritative undo pointer for t's current
// slot, regardless of FlagInvalidXactSlot: the slot table entry, not
// anything cached on the tuple header, is always the ground truth for
// "where does this slot's undo start".
func GetRawUndoPtr(page PageMetadata, t *Tuple) UndoPtr {
	if t.Slot == FrozenSlot {
		return InvalidUndoPtr
	}
	return page.SlotUndoPtr(t.Slot)
}

// PageLock is the concrete form of the "caller holds a pin and shared
// content lock on the page" assumption the engine makes of its caller.
// It is reentrant on the goroutine that first acquires it, so code that
// already holds the page can take the lock again without deadlocking
// against its own earlier acquisition. The predicates themselves never
// take or check the lock; holding it is the caller's job.
// A different goroutine attempting to touch the page while the lock is
// held blocks like an ordinary mutex; MustHeld panics if called by a
// goroutine that does not hold the lock at all, catching a caller that
// skipped the pin entirely.
type PageLock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner atomic.Int64
	count atomic.Uint64
}

// NewPageLock returns an unlocked PageLock.
func NewPageLock() *PageLock {
	l := &PageLock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *PageLock) Lock() {
	rid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner.Load() == rid {
		l.count.Add(1)
		return
	}
	for l.owner.Load() != 0 {
		l.cond.Wait()
	}
	l.owner.Store(rid)
	l.count.Store(1)
}

func (l *PageLock) Unlock() {
	rid := goid.Get()
	signal := false
	l.mu.Lock()
	defer func() {
		l.mu.Unlock()
		if signal {
			l.cond.Signal()
		}
	}()
	if l.count.Load() == 0 || l.owner.Load() != rid {
		panic("zheap: unlock of page lock not held by this goroutine")
	}
	l.count.Add(^uint64(0))
	if l.count.Load() == 0 {
		l.owner.Store(0)
		signal = true
	}
}

// MustHeld panics unless the calling goroutine currently holds l, so a
// caller can assert that the page pin the concurrency model requires is
// actually in place.
func (l *PageLock) MustHeld() {
	util.AssertFunc(l.owner.Load() == goid.Get())
}

var _ sync.Locker = (*PageLock)(nil)
