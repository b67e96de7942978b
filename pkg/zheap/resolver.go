package zheap

import (
	"go.uber.org/zap"

	"github.com/riftdb/zheap/pkg/zlog"
)

// resolveInvalidSlot walks undo starting at ptr to recover the xid, cid,
// and undo pointer that actually last touched a tuple whose slot has
// been recycled. When wantXid is non-zero, walking continues past a
// non-invalid-slot record until the observed xid matches wantXid too;
// this is the stricter form the chain walker uses to re-synchronize
// after a chain switch. A nil fetch (undo discarded) is treated as
// "predates the horizon": InvalidXid/InvalidCid/InvalidUndoPtr.
func resolveInvalidSlot(store UndoStore, tid TupleID, ptr UndoPtr, wantXid Xid) (xid Xid, cid Cid, urecPtr UndoPtr, err error) {
	cur := ptr
	for {
		if !cur.Valid() {
			return InvalidXid, InvalidCid, InvalidUndoPtr, nil
		}
		rec, ferr := store.Fetch(cur, tid, InvalidXid)
		if ferr != nil {
			return InvalidXid, InvalidCid, InvalidUndoPtr, ferr
		}
		if rec == nil {
			store.Release(rec)
			return InvalidXid, InvalidCid, InvalidUndoPtr, nil
		}
		xid = rec.PrevXid
		cid = rec.Cid
		urecPtr = rec.BlkPrev
		typ := rec.Type
		store.Release(rec)

		zlog.Debug("resolved invalid xact slot step",
			zap.Uint64("xid", uint64(xid)), zap.Uint8("type", uint8(typ)))

		if typ != UndoInvalidXactSlot && (wantXid == InvalidXid || xid == wantXid) {
			return xid, cid, urecPtr, nil
		}
		cur = urecPtr
	}
}

// resolveEffective produces the effective (xid, cid, urec_ptr) triple
// every visibility predicate branches on, per the frozen/invalid-slot/
// ordinary-slot cases.
func resolveEffective(page PageMetadata, store UndoStore, t *Tuple) (xid Xid, cid Cid, urecPtr UndoPtr, err error) {
	if t.Slot == FrozenSlot {
		return InvalidXid, InvalidCid, InvalidUndoPtr, nil
	}
	if t.Flags.Has(FlagInvalidXactSlot) {
		start := GetRawUndoPtr(page, t)
		return resolveInvalidSlot(store, t.Self, start, InvalidXid)
	}
	xid = page.SlotXid(t.Slot)
	urecPtr = page.SlotUndoPtr(t.Slot)
	if c, ok := page.SlotCid(t.Slot, t.Self); ok {
		cid = c
	} else {
		cid = InvalidCid
	}
	return xid, cid, urecPtr, nil
}
