package zheap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/zheap/pkg/util"
	"github.com/riftdb/zheap/pkg/zfixture"
	"github.com/riftdb/zheap/pkg/zheap"
)

// TestSatisfiesDirtyAbortedProducerFaultInjection exercises the FIXME
// arm SPEC_FULL §7 says is wired to fault injection "so a test can
// force the branch and assert the documented behavior": an aborted
// delete/update producer under satisfies_dirty.
func TestSatisfiesDirtyAbortedProducerFaultInjection(t *testing.T) {
	util.Open(zheap.FaultScopeVisibility)
	defer util.Close(zheap.FaultScopeVisibility)
	injected := errors.New("injected dirty abort")
	util.Register(zheap.FaultScopeVisibility, zheap.FaultDirtyAbortedProducer, nil, func([]string) error {
		return injected
	})

	fx := zfixture.New(102, 90, 4)
	fx.Oracle.MarkCommitted(100)
	fx.Page.SetSlot(0, 100, zheap.InvalidUndoPtr)

	tid := zheap.TupleID{Block: 3, Offset: 1}
	undoPtr := zheap.UndoPtr{Block: 3, Offset: 1}
	fx.Page.SetSlot(1, 101, undoPtr) // 101 is left unmarked: aborted
	fx.Undo.Put(undoPtr, zheap.UndoRecord{
		Type:    zheap.UndoDelete,
		PrevXid: 100,
		BlkPrev: zheap.InvalidUndoPtr,
		Slot:    0,
	})
	tup := &zheap.Tuple{Self: tid, Slot: 1, Flags: zheap.FlagDeleted}

	_, err := zheap.SatisfiesDirty(fx.Page, fx.Undo, fx.Oracle, 90, tup, &zheap.Snapshot{})
	require.ErrorIs(t, err, injected)
}

// TestSatisfiesUpdateAbortedProducerFaultInjection is the same arm's
// satisfies_update counterpart.
func TestSatisfiesUpdateAbortedProducerFaultInjection(t *testing.T) {
	util.Open(zheap.FaultScopeVisibility)
	defer util.Close(zheap.FaultScopeVisibility)
	injected := errors.New("injected update abort")
	util.Register(zheap.FaultScopeVisibility, zheap.FaultUpdateAbortedProducer, nil, func([]string) error {
		return injected
	})

	fx := zfixture.New(102, 90, 4)
	fx.Oracle.MarkCommitted(100)
	fx.Page.SetSlot(0, 100, zheap.InvalidUndoPtr)

	tid := zheap.TupleID{Block: 3, Offset: 2}
	undoPtr := zheap.UndoPtr{Block: 3, Offset: 2}
	fx.Page.SetSlot(1, 101, undoPtr)
	fx.Undo.Put(undoPtr, zheap.UndoRecord{
		Type:    zheap.UndoDelete,
		PrevXid: 100,
		BlkPrev: zheap.InvalidUndoPtr,
		Slot:    0,
	})
	tup := &zheap.Tuple{Self: tid, Slot: 1, Flags: zheap.FlagDeleted}

	_, _, _, _, _, err := zheap.SatisfiesUpdate(fx.Page, fx.Undo, fx.Oracle, 90, tup, 5, &zheap.Snapshot{}, false)
	require.ErrorIs(t, err, injected)
}

// TestSatisfiesDirtyAbortedProducerWithoutFaultReturnsInvisible confirms
// the documented default behavior still holds when no fault is
// registered: the FIXME arm degrades to invisible rather than erroring.
func TestSatisfiesDirtyAbortedProducerWithoutFaultReturnsInvisible(t *testing.T) {
	fx := zfixture.New(102, 90, 4)
	fx.Oracle.MarkCommitted(100)
	fx.Page.SetSlot(0, 100, zheap.InvalidUndoPtr)

	tid := zheap.TupleID{Block: 3, Offset: 3}
	undoPtr := zheap.UndoPtr{Block: 3, Offset: 3}
	fx.Page.SetSlot(1, 101, undoPtr)
	fx.Undo.Put(undoPtr, zheap.UndoRecord{
		Type:    zheap.UndoDelete,
		PrevXid: 100,
		BlkPrev: zheap.InvalidUndoPtr,
		Slot:    0,
	})
	tup := &zheap.Tuple{Self: tid, Slot: 1, Flags: zheap.FlagDeleted}

	got, err := zheap.SatisfiesDirty(fx.Page, fx.Undo, fx.Oracle, 90, tup, &zheap.Snapshot{})
	require.NoError(t, err)
	require.Nil(t, got)
}
