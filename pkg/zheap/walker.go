package zheap

import (
	"github.com/huandu/go-clone"
	"go.uber.org/zap"

	"github.com/riftdb/zheap/pkg/util"
	"github.com/riftdb/zheap/pkg/zlog"
)

// walkStep reconstructs the version of a tuple immediately prior to cur,
// following the undo pointer urecPtr. It returns the reconstructed
// version (nil once the chain has terminated, either at a discarded
// pointer or an invalid one), the xid/cid/undo-pointer that produced
// it, the classification of that version's own nature, and — for
// records describing a non-in-place update — the successor tid the row
// moved to.
//
// The chain-switch rule lives here: if the reconstructed version's slot
// differs from cur's slot and is not FrozenSlot, the version belongs to
// a different transaction's chain, and the correct continuation is that
// version's own slot undo pointer, not the record's blkprev.
func walkStep(page PageMetadata, store UndoStore, oracle Oracle, horizon Xid, cur *Tuple, urecPtr UndoPtr, prevUndoXid Xid) (prior *Tuple, priorXid Xid, priorCid Cid, priorUrecPtr UndoPtr, oper UndoOper, successor TupleID, err error) {
	ptr := urecPtr
	var rec *UndoRecord
	for {
		if !ptr.Valid() {
			return nil, InvalidXid, InvalidCid, InvalidUndoPtr, OperRoot, InvalidTupleID, nil
		}
		fetched, ferr := store.Fetch(ptr, cur.Self, prevUndoXid)
		if ferr != nil {
			return nil, InvalidXid, InvalidCid, InvalidUndoPtr, OperRoot, InvalidTupleID, ferr
		}
		if fetched == nil {
			store.Release(fetched)
			return nil, InvalidXid, InvalidCid, InvalidUndoPtr, OperRoot, InvalidTupleID, nil
		}
		if fetched.Type == UndoInvalidXactSlot {
			next := fetched.BlkPrev
			store.Release(fetched)
			ptr = next
			continue
		}
		rec = fetched
		break
	}

	prior = reconstruct(cur, rec)
	priorXid = rec.PrevXid
	priorCid = rec.Cid
	priorUrecPtr = rec.BlkPrev
	recType := rec.Type
	if recType == UndoUpdate {
		successor = rec.Successor
	}
	store.Release(rec)

	if prior.Slot != cur.Slot && prior.Slot != FrozenSlot {
		zlog.Debug("undo chain switch",
			zap.Int("fromSlot", cur.Slot), zap.Int("toSlot", prior.Slot))
		priorUrecPtr = GetRawUndoPtr(page, prior)
	}

	util.AssertFunc(!prior.Flags.DeletedOrUpdated())
	switch {
	case prior.Flags.Has(FlagInplaceUpdated):
		oper = OperInplaceUpdated
	case prior.Flags.Has(FlagXidLockOnly):
		oper = OperXidLockOnly
	default:
		oper = OperRoot
	}

	if prior.Flags.Has(FlagInvalidXactSlot) && !oracle.Precedes(priorXid, horizon) {
		resXid, resCid, resUrecPtr, rerr := resolveInvalidSlot(store, prior.Self, priorUrecPtr, priorXid)
		if rerr != nil {
			return nil, InvalidXid, InvalidCid, InvalidUndoPtr, OperRoot, InvalidTupleID, rerr
		}
		priorCid = resCid
		priorUrecPtr = resUrecPtr
		priorXid = resXid
	}

	return prior, priorXid, priorCid, priorUrecPtr, oper, successor, nil
}

// reconstruct clones cur and overlays the undo record's header snapshot
// and opaque payload onto it, producing the prior version. Cloning
// (rather than mutating cur) keeps cur valid for a caller still holding
// it while a chain walk continues past it.
func reconstruct(cur *Tuple, rec *UndoRecord) *Tuple {
	prior := clone.Clone(cur).(*Tuple)
	prior.Slot = rec.Slot
	prior.Flags = rec.Flags
	if rec.Payload != nil {
		prior.Payload = clone.Clone(rec.Payload).([]byte)
	}
	return prior
}
