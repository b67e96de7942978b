// Package zfixture is an in-memory, single-process reference
// implementation of zheap's Oracle, UndoStore, and PageMetadata
// collaborator interfaces. It backs the package's own tests,
// cmd/zheapctl, and pkg/vacuumaudit; it is a test/demo double, not a
// storage engine — nothing here persists, evicts, writes undo, applies
// rollback, or reclaims undo.
package zfixture

import (
	"sync"

	"github.com/riftdb/zheap/pkg/zheap"
)

type xidStatus uint8

const (
	// statusUnset is the zero value: an xid nobody has explicitly
	// marked in-progress or committed is, by construction, aborted.
	statusUnset xidStatus = iota
	statusInProgress
	statusCommitted
)

// Oracle is an in-memory zheap.Oracle. A single fixed xid is "current";
// every other xid's status is whatever the test or CLI caller records
// with MarkInProgress/MarkCommitted, defaulting to aborted.
type Oracle struct {
	mu       sync.RWMutex
	current  zheap.Xid
	statuses map[zheap.Xid]xidStatus
	hidden   map[zheap.Xid]bool
}

// NewOracle returns an Oracle whose current transaction is current.
func NewOracle(current zheap.Xid) *Oracle {
	return &Oracle{
		current:  current,
		statuses: map[zheap.Xid]xidStatus{},
		hidden:   map[zheap.Xid]bool{},
	}
}

func (o *Oracle) setStatus(xid zheap.Xid, s xidStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses[xid] = s
}

// MarkInProgress records xid as a currently-running transaction.
func (o *Oracle) MarkInProgress(xid zheap.Xid) { o.setStatus(xid, statusInProgress) }

// MarkCommitted records xid as durably committed.
func (o *Oracle) MarkCommitted(xid zheap.Xid) { o.setStatus(xid, statusCommitted) }

// HideFromSnapshot marks xid as one an MVCC snapshot should treat as
// concurrent even though it is not (or is no longer) in progress —
// e.g. a transaction that committed after the snapshot was taken.
func (o *Oracle) HideFromSnapshot(xid zheap.Xid) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hidden[xid] = true
}

func (o *Oracle) IsCurrent(xid zheap.Xid) bool {
	return xid != zheap.InvalidXid && xid == o.current
}

func (o *Oracle) IsInProgress(xid zheap.Xid) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.statuses[xid] == statusInProgress
}

func (o *Oracle) DidCommit(xid zheap.Xid) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.statuses[xid] == statusCommitted
}

// Precedes reports whether xid is older than horizon. InvalidXid (0)
// precedes every horizon, matching TransactionIdPrecedes's treatment of
// InvalidTransactionId: a resolved-to-invalid xid (a discarded undo
// chain) is pre-horizon, not merely "not less than".
func (o *Oracle) Precedes(xid, horizon zheap.Xid) bool {
	return xid < horizon
}

func (o *Oracle) InMVCCSnapshot(xid zheap.Xid, snap *zheap.Snapshot) bool {
	if o.IsCurrent(xid) {
		return false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.statuses[xid] == statusInProgress {
		return true
	}
	return o.hidden[xid]
}

var _ zheap.Oracle = (*Oracle)(nil)
