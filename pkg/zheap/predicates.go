package zheap

import (
	"github.com/liyue201/gostl/ds/stack"
	"go.uber.org/zap"

	"github.com/riftdb/zheap/pkg/util"
	"github.com/riftdb/zheap/pkg/zlog"
)

// maxChainWalk bounds an undo chain walk defensively; real chains are
// bounded by undo retention long before this.
const maxChainWalk = 1 << 20

// SatisfiesAny is the identity predicate: every tuple version is
// visible to it, no matter its state.
func SatisfiesAny(t *Tuple) *Tuple {
	return t
}

// SatisfiesMVCC decides which version of t (if any) is visible under
// snap, walking undo when the in-place header alone cannot answer the
// question. The walk is expressed as an explicit loop over a gostl
// stack of visited tids rather than as recursive descent, so a long
// chain costs stack frames on the heap-backed container instead of the
// goroutine stack.
func SatisfiesMVCC(page PageMetadata, store UndoStore, oracle Oracle, horizon Xid, t *Tuple, snap *Snapshot) (*Tuple, error) {
	visited := stack.New[TupleID]()
	cur := t
	xid, cid, urecPtr, err := resolveEffective(page, store, cur)
	if err != nil {
		return nil, err
	}
	prevUndoXid := InvalidXid
	for {
		visited.Push(cur.Self)
		// Undo retention already bounds real chains far below this;
		// tripping it means the page/undo store handed us a cycle.
		util.AssertFunc(visited.Size() <= maxChainWalk)

		if cur.Slot == FrozenSlot || oracle.Precedes(xid, horizon) {
			if cur.Flags.DeletedOrUpdated() {
				return nil, nil
			}
			return cur, nil
		}

		state := classifySnapshot(oracle, xid, snap)
		walk := false
		switch {
		case cur.Flags.DeletedOrUpdated():
			switch state {
			case snapCurrent:
				if cid < snap.Curcid {
					return cur, nil
				}
				walk = true
			case snapInSnapshot:
				walk = true
			case snapCommitted:
				return nil, nil
			case snapAborted:
				walk = true
			}
		case cur.Flags.InplaceOrLockOnly():
			switch state {
			case snapCurrent:
				if cur.Flags.Has(FlagXidLockOnly) || cid < snap.Curcid {
					return cur, nil
				}
				walk = true
			case snapInSnapshot:
				walk = true
			case snapCommitted:
				return cur, nil
			case snapAborted:
				walk = true
			}
		default:
			switch state {
			case snapCurrent:
				if cid < snap.Curcid {
					return cur, nil
				}
				return nil, nil
			case snapInSnapshot:
				return nil, nil
			case snapCommitted:
				return cur, nil
			case snapAborted:
				return nil, nil
			}
		}
		util.AssertFunc(walk)

		prior, priorXid, priorCid, priorUrecPtr, _, _, werr := walkStep(page, store, oracle, horizon, cur, urecPtr, prevUndoXid)
		if werr != nil {
			return nil, werr
		}
		if prior == nil {
			zlog.Debug("undo chain exhausted, treating as pre-horizon",
				zap.Uint64("xid", uint64(xid)), zap.Int("chainDepth", visited.Size()))
			if cur.Flags.DeletedOrUpdated() {
				return nil, nil
			}
			return cur, nil
		}
		prevUndoXid = xid
		cur = prior
		xid, cid, urecPtr = priorXid, priorCid, priorUrecPtr
	}
}

// SatisfiesDirty is SatisfiesMVCC's "dirty read" sibling: in-progress
// producers are treated as visible rather than triggering a walk, and
// the observer's snapshot is narrowed onto whichever xid is
// responsible, so a caller checking a unique constraint can wait on it.
func SatisfiesDirty(page PageMetadata, store UndoStore, oracle Oracle, horizon Xid, t *Tuple, snap *Snapshot) (*Tuple, error) {
	cur := t
	xid, cid, urecPtr, err := resolveEffective(page, store, cur)
	if err != nil {
		return nil, err
	}
	prevUndoXid := InvalidXid
	for {
		if cur.Slot == FrozenSlot || oracle.Precedes(xid, horizon) {
			if cur.Flags.DeletedOrUpdated() {
				return nil, nil
			}
			return cur, nil
		}

		state := classifyProgress(oracle, xid)
		walk := false
		switch {
		case cur.Flags.DeletedOrUpdated():
			switch state {
			case xactCurrent:
				return nil, nil
			case xactInProgress:
				snap.Xmax = xid
				return cur, nil
			case xactCommitted:
				return nil, nil
			case xactAborted:
				if action := util.Check(faultScopeVisibility, faultDirtyAbortedProducer); action != nil {
					if aerr := action.Action(action.Args); aerr != nil {
						return nil, aerr
					}
				}
				zlog.Warn("satisfies_dirty saw an aborted delete/update producer",
					zap.Uint64("xid", uint64(xid)))
				return nil, nil
			}
		case cur.Flags.InplaceOrLockOnly():
			switch state {
			case xactCurrent:
				if cur.Flags.Has(FlagXidLockOnly) || cid < snap.Curcid {
					return cur, nil
				}
				walk = true
			case xactInProgress:
				if !cur.Flags.Has(FlagXidLockOnly) {
					snap.Xmax = xid
				}
				return cur, nil
			case xactCommitted:
				return cur, nil
			case xactAborted:
				walk = true
			}
		default:
			switch state {
			case xactCurrent:
				if cid < snap.Curcid {
					return cur, nil
				}
				return nil, nil
			case xactInProgress:
				snap.Xmin = xid
				return cur, nil
			case xactCommitted:
				return cur, nil
			case xactAborted:
				return nil, nil
			}
		}
		util.AssertFunc(walk)

		prior, priorXid, priorCid, priorUrecPtr, _, _, werr := walkStep(page, store, oracle, horizon, cur, urecPtr, prevUndoXid)
		if werr != nil {
			return nil, werr
		}
		if prior == nil {
			if cur.Flags.DeletedOrUpdated() {
				return nil, nil
			}
			return cur, nil
		}
		prevUndoXid = xid
		cur = prior
		xid, cid, urecPtr = priorXid, priorCid, priorUrecPtr
	}
}

// SatisfiesUpdate decides whether the caller may update or delete t,
// per the same state triage as SatisfiesMVCC but classified by
// transaction progress rather than snapshot membership, since the
// caller here already holds a lock intent rather than a read snapshot.
// It returns the verdict plus the effective xid/cid and, when the
// verdict is Updated, the successor tid the row moved to.
func SatisfiesUpdate(page PageMetadata, store UndoStore, oracle Oracle, horizon Xid, t *Tuple, curcid Cid, snap *Snapshot, lockAllowed bool) (verdict UpdateVerdict, effXid Xid, effCid Cid, successorOut TupleID, inplaceOrLocked bool, err error) {
	xid, cid, urecPtr, err := resolveEffective(page, store, t)
	if err != nil {
		return 0, InvalidXid, InvalidCid, InvalidTupleID, false, err
	}

	if t.Slot == FrozenSlot || oracle.Precedes(xid, horizon) {
		if t.Flags.DeletedOrUpdated() {
			return Invisible, xid, cid, InvalidTupleID, false, nil
		}
		return MayBeUpdated, xid, cid, InvalidTupleID, false, nil
	}

	state := classifyProgress(oracle, xid)
	switch {
	case t.Flags.DeletedOrUpdated():
		switch state {
		case xactCurrent:
			// Deleted/updated by our own transaction: whether we see
			// our own change depends on when it happened relative to
			// the scan that's asking, exactly as for a plain MVCC
			// self-check.
			if cid >= curcid {
				return SelfUpdated, xid, cid, InvalidTupleID, false, nil
			}
			return Invisible, xid, cid, InvalidTupleID, false, nil
		case xactInProgress:
			return BeingUpdated, xid, cid, InvalidTupleID, false, nil
		case xactCommitted:
			var successor TupleID
			if t.Flags.Has(FlagUpdated) {
				_, _, _, _, _, succ, werr := walkStep(page, store, oracle, horizon, t, urecPtr, InvalidXid)
				if werr != nil {
					return 0, InvalidXid, InvalidCid, InvalidTupleID, false, werr
				}
				successor = succ
			}
			return Updated, xid, cid, successor, false, nil
		case xactAborted:
			if action := util.Check(faultScopeVisibility, faultUpdateAbortedProducer); action != nil {
				if aerr := action.Action(action.Args); aerr != nil {
					return 0, InvalidXid, InvalidCid, InvalidTupleID, false, aerr
				}
			}
			prior, _, _, _, _, _, werr := walkStep(page, store, oracle, horizon, t, urecPtr, InvalidXid)
			if werr != nil {
				return 0, InvalidXid, InvalidCid, InvalidTupleID, false, werr
			}
			if prior != nil {
				return MayBeUpdated, xid, cid, InvalidTupleID, false, nil
			}
			return Invisible, xid, cid, InvalidTupleID, false, nil
		}
	case t.Flags.InplaceOrLockOnly():
		switch state {
		case xactCurrent:
			return MayBeUpdated, xid, cid, InvalidTupleID, true, nil
		case xactInProgress:
			return BeingUpdated, xid, cid, InvalidTupleID, true, nil
		case xactCommitted:
			if t.Flags.Has(FlagXidLockOnly) {
				return MayBeUpdated, xid, cid, InvalidTupleID, true, nil
			}
			if lockAllowed || !oracle.InMVCCSnapshot(xid, snap) {
				return MayBeUpdated, xid, cid, InvalidTupleID, true, nil
			}
			return Updated, xid, cid, InvalidTupleID, true, nil
		case xactAborted:
			prior, _, _, _, _, _, werr := walkStep(page, store, oracle, horizon, t, urecPtr, InvalidXid)
			if werr != nil {
				return 0, InvalidXid, InvalidCid, InvalidTupleID, false, werr
			}
			if prior != nil {
				return MayBeUpdated, xid, cid, InvalidTupleID, true, nil
			}
			return Invisible, xid, cid, InvalidTupleID, true, nil
		}
	}
	return MayBeUpdated, xid, cid, InvalidTupleID, false, nil
}

// SatisfiesOldestXmin classifies t for vacuum-style consumers that have
// only a horizon, not a full snapshot: is it fully dead, recently dead
// but still needed by some open snapshot, or still being produced or
// removed.
func SatisfiesOldestXmin(page PageMetadata, store UndoStore, oracle Oracle, t *Tuple, oldestXmin Xid) (OldestXminVerdict, Xid, error) {
	xid, _, _, err := resolveEffective(page, store, t)
	if err != nil {
		return Dead, InvalidXid, err
	}

	if t.Slot == FrozenSlot || oracle.Precedes(xid, oldestXmin) {
		if t.Flags.DeletedOrUpdated() {
			return Dead, xid, nil
		}
		return Live, xid, nil
	}

	if t.Flags.DeletedOrUpdated() {
		switch classifyProgress(oracle, xid) {
		case xactCurrent, xactInProgress:
			return DeleteInProgress, xid, nil
		case xactCommitted:
			if !oracle.Precedes(xid, oldestXmin) {
				return RecentlyDead, xid, nil
			}
			return Dead, xid, nil
		case xactAborted:
			return Live, xid, nil
		}
	}

	if t.Flags.Has(FlagXidLockOnly) {
		return Live, xid, nil
	}

	switch classifyProgress(oracle, xid) {
	case xactCurrent, xactInProgress:
		return InsertInProgress, xid, nil
	case xactCommitted:
		return Live, xid, nil
	case xactAborted:
		// FIXME: an aborted in-place update should resurrect the pre-
		// image rather than be reported dead outright; matches the
		// source's own unresolved rollback-timing gap.
		return Dead, xid, nil
	}

	// Defensive: every branch above is exhaustive over classifyProgress's
	// four states, but a future fifth state should read as live rather
	// than fail silently.
	return Live, xid, nil
}

// IsSurelyDead reports whether t can never again be visible to any
// snapshot: true only for a deleted/updated tuple whose producer is
// already known to be fully in the past.
func IsSurelyDead(page PageMetadata, store UndoStore, oracle Oracle, t *Tuple, oldestXmin Xid) (bool, error) {
	if !t.Flags.DeletedOrUpdated() {
		return false, nil
	}
	if t.Slot == FrozenSlot {
		return true, nil
	}
	xid, _, _, err := resolveEffective(page, store, t)
	if err != nil {
		return false, err
	}
	return oracle.Precedes(xid, oldestXmin), nil
}
