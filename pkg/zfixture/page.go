package zfixture

import "github.com/riftdb/zheap/pkg/zheap"

type slotEntry struct {
	xid     zheap.Xid
	undoPtr zheap.UndoPtr
	cids    map[zheap.TupleID]zheap.Cid
}

// Page is an in-memory zheap.PageMetadata: a fixed-size transaction
// slot table, plus the PageLock a predicate caller is expected to hold
// for the page's tuples for the duration of a call.
type Page struct {
	*zheap.PageLock
	slots []slotEntry
}

// NewPage returns a page with numSlots empty transaction slots.
func NewPage(numSlots int) *Page {
	slots := make([]slotEntry, numSlots)
	for i := range slots {
		slots[i].cids = map[zheap.TupleID]zheap.Cid{}
	}
	return &Page{PageLock: zheap.NewPageLock(), slots: slots}
}

// SetSlot installs slot's raw xid and undo pointer, as if a transaction
// had just claimed that slot on the page.
func (p *Page) SetSlot(slot int, xid zheap.Xid, undoPtr zheap.UndoPtr) {
	p.slots[slot].xid = xid
	p.slots[slot].undoPtr = undoPtr
}

// SetSlotCid records the command id at which tid was touched by slot's
// transaction, for pages that still carry a per-tuple cid cache.
func (p *Page) SetSlotCid(slot int, tid zheap.TupleID, cid zheap.Cid) {
	p.slots[slot].cids[tid] = cid
}

func (p *Page) SlotXid(slot int) zheap.Xid {
	if !p.validSlot(slot) {
		return zheap.InvalidXid
	}
	return p.slots[slot].xid
}

func (p *Page) SlotUndoPtr(slot int) zheap.UndoPtr {
	if !p.validSlot(slot) {
		return zheap.InvalidUndoPtr
	}
	return p.slots[slot].undoPtr
}

func (p *Page) SlotCid(slot int, tid zheap.TupleID) (zheap.Cid, bool) {
	if !p.validSlot(slot) {
		return zheap.InvalidCid, false
	}
	cid, ok := p.slots[slot].cids[tid]
	return cid, ok
}

func (p *Page) validSlot(slot int) bool {
	return slot != zheap.FrozenSlot && slot >= 0 && slot < len(p.slots)
}

var _ zheap.PageMetadata = (*Page)(nil)
