package zheap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/zheap/pkg/zfixture"
	"github.com/riftdb/zheap/pkg/zheap"
)

// Fixed identifiers used throughout, matching the walkthrough scenarios
// this suite is built from: T1=100, T2=101, me=102, horizon=90, curcid=5.
const (
	xidT1   zheap.Xid = 100
	xidT2   zheap.Xid = 101
	xidMe   zheap.Xid = 102
	horizon zheap.Xid = 90
	curcid  zheap.Cid = 5
)

func newSnap() *zheap.Snapshot {
	return &zheap.Snapshot{Curcid: curcid}
}

// S1: insert by committed T1, no updates.
func TestSatisfiesMVCC_InsertCommittedNoUpdates(t *testing.T) {
	fx := zfixture.New(xidMe, horizon, 4)
	fx.Oracle.MarkCommitted(xidT1)
	fx.Page.SetSlot(0, xidT1, zheap.InvalidUndoPtr)

	tup := &zheap.Tuple{Self: zheap.TupleID{Block: 1, Offset: 1}, Slot: 0}

	got, err := zheap.SatisfiesMVCC(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, newSnap())
	require.NoError(t, err)
	require.Same(t, tup, got)

	verdict, _, err := zheap.SatisfiesOldestXmin(fx.Page, fx.Undo, fx.Oracle, tup, horizon)
	require.NoError(t, err)
	require.Equal(t, zheap.Live, verdict)
}

// S2: insert T1 committed, deleted by in-progress T2.
func TestSatisfiesMVCC_DeletedByInProgress(t *testing.T) {
	fx := zfixture.New(xidMe, horizon, 4)
	fx.Oracle.MarkCommitted(xidT1)
	fx.Oracle.MarkInProgress(xidT2)
	fx.Page.SetSlot(0, xidT1, zheap.InvalidUndoPtr)

	tid := zheap.TupleID{Block: 1, Offset: 2}
	undoPtr := zheap.UndoPtr{Block: 1, Offset: 1}
	fx.Page.SetSlot(1, xidT2, undoPtr)
	fx.Undo.Put(undoPtr, zheap.UndoRecord{
		Type:    zheap.UndoDelete,
		PrevXid: xidT1,
		Cid:     zheap.InvalidCid,
		BlkPrev: zheap.InvalidUndoPtr,
		Slot:    0,
		Flags:   0,
	})

	tup := &zheap.Tuple{Self: tid, Slot: 1, Flags: zheap.FlagDeleted}

	got, err := zheap.SatisfiesMVCC(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, newSnap())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Zero(t, got.Flags)
	require.Equal(t, 0, got.Slot)
	require.Zero(t, fx.Undo.Outstanding(), "every fetch must be released")

	snap := newSnap()
	dirty, err := zheap.SatisfiesDirty(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, snap)
	require.NoError(t, err)
	require.Same(t, tup, dirty)
	require.Equal(t, xidT2, snap.Xmax)

	verdict, _, _, _, _, err := zheap.SatisfiesUpdate(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, curcid, newSnap(), false)
	require.NoError(t, err)
	require.Equal(t, zheap.BeingUpdated, verdict)
}

// S3/S4: in-place update by me, visibility gated on cid vs curcid.
func TestSatisfiesMVCC_InplaceUpdateCidGate(t *testing.T) {
	tid := zheap.TupleID{Block: 2, Offset: 1}
	undoPtr := zheap.UndoPtr{Block: 2, Offset: 1}

	t.Run("post-image when cid < curcid", func(t *testing.T) {
		fx := zfixture.New(xidMe, horizon, 4)
		fx.Page.SetSlot(0, xidMe, undoPtr)
		fx.Page.SetSlotCid(0, tid, 3)
		tup := &zheap.Tuple{Self: tid, Slot: 0, Flags: zheap.FlagInplaceUpdated}

		got, err := zheap.SatisfiesMVCC(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, newSnap())
		require.NoError(t, err)
		require.Same(t, tup, got)
	})

	t.Run("pre-image via undo when cid >= curcid", func(t *testing.T) {
		fx := zfixture.New(xidMe, horizon, 4)
		fx.Oracle.MarkCommitted(xidT1)
		fx.Page.SetSlot(0, xidMe, undoPtr)
		fx.Page.SetSlotCid(0, tid, 7)
		fx.Page.SetSlot(1, xidT1, zheap.InvalidUndoPtr)
		fx.Undo.Put(undoPtr, zheap.UndoRecord{
			Type:    zheap.UndoInplaceUpdate,
			PrevXid: xidT1,
			Cid:     zheap.InvalidCid,
			BlkPrev: zheap.InvalidUndoPtr,
			Slot:    1,
			Flags:   0,
		})
		tup := &zheap.Tuple{Self: tid, Slot: 0, Flags: zheap.FlagInplaceUpdated}

		got, err := zheap.SatisfiesMVCC(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, newSnap())
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotSame(t, tup, got)
		require.Zero(t, got.Flags)
		require.Zero(t, fx.Undo.Outstanding())
	})
}

// S5: delete by aborted T2 over a committed T1 insert.
func TestSatisfiesMVCC_DeletedByAbortedRollsBack(t *testing.T) {
	fx := zfixture.New(xidMe, horizon, 4)
	fx.Oracle.MarkCommitted(xidT1)
	// T2 is left unrecorded: the fixture treats that as aborted.
	fx.Page.SetSlot(0, xidT1, zheap.InvalidUndoPtr)

	tid := zheap.TupleID{Block: 3, Offset: 1}
	undoPtr := zheap.UndoPtr{Block: 3, Offset: 1}
	fx.Page.SetSlot(1, xidT2, undoPtr)
	fx.Undo.Put(undoPtr, zheap.UndoRecord{
		Type:    zheap.UndoDelete,
		PrevXid: xidT1,
		BlkPrev: zheap.InvalidUndoPtr,
		Slot:    0,
	})

	tup := &zheap.Tuple{Self: tid, Slot: 1, Flags: zheap.FlagDeleted}

	got, err := zheap.SatisfiesMVCC(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, newSnap())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Zero(t, got.Flags)

	verdict, _, err := zheap.SatisfiesOldestXmin(fx.Page, fx.Undo, fx.Oracle, tup, horizon)
	require.NoError(t, err)
	require.Equal(t, zheap.Live, verdict)
}

// S6: frozen slot, DELETED flag.
func TestSatisfiesMVCC_FrozenDeleted(t *testing.T) {
	fx := zfixture.New(xidMe, horizon, 0)
	tup := &zheap.Tuple{Self: zheap.TupleID{Block: 4, Offset: 1}, Slot: zheap.FrozenSlot, Flags: zheap.FlagDeleted}

	got, err := zheap.SatisfiesMVCC(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, newSnap())
	require.NoError(t, err)
	require.Nil(t, got)

	dead, err := zheap.IsSurelyDead(fx.Page, fx.Undo, fx.Oracle, tup, horizon)
	require.NoError(t, err)
	require.True(t, dead)

	verdict, _, err := zheap.SatisfiesOldestXmin(fx.Page, fx.Undo, fx.Oracle, tup, horizon)
	require.NoError(t, err)
	require.Equal(t, zheap.Dead, verdict)
}

// Property 2: a frozen, non-deleted tuple is always live and never
// surely dead.
func TestFrozenSlotLiveNotDeleted(t *testing.T) {
	fx := zfixture.New(xidMe, horizon, 0)
	tup := &zheap.Tuple{Self: zheap.TupleID{Block: 5, Offset: 1}, Slot: zheap.FrozenSlot}

	got, err := zheap.SatisfiesMVCC(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, newSnap())
	require.NoError(t, err)
	require.Same(t, tup, got)

	dead, err := zheap.IsSurelyDead(fx.Page, fx.Undo, fx.Oracle, tup, horizon)
	require.NoError(t, err)
	require.False(t, dead)
}

// Property 6: a plain insert by the current transaction at a cid not
// yet reached by the observing command is invisible to it.
func TestSelfInsertCidGate(t *testing.T) {
	fx := zfixture.New(xidMe, horizon, 1)
	tid := zheap.TupleID{Block: 6, Offset: 1}
	fx.Page.SetSlot(0, xidMe, zheap.InvalidUndoPtr)
	fx.Page.SetSlotCid(0, tid, 9)
	tup := &zheap.Tuple{Self: tid, Slot: 0}

	got, err := zheap.SatisfiesMVCC(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, newSnap())
	require.NoError(t, err)
	require.Nil(t, got)
}

// Property 9: surely dead implies invisible under any snapshot.
func TestSurelyDeadImpliesInvisible(t *testing.T) {
	fx := zfixture.New(xidMe, horizon, 0)
	tup := &zheap.Tuple{Self: zheap.TupleID{Block: 7, Offset: 1}, Slot: zheap.FrozenSlot, Flags: zheap.FlagUpdated}

	dead, err := zheap.IsSurelyDead(fx.Page, fx.Undo, fx.Oracle, tup, horizon)
	require.NoError(t, err)
	require.True(t, dead)

	visible, err := zheap.SatisfiesMVCC(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, newSnap())
	require.NoError(t, err)
	require.Nil(t, visible)
}

func TestSatisfiesAnyIsIdentity(t *testing.T) {
	tup := &zheap.Tuple{Self: zheap.TupleID{Block: 8, Offset: 1}, Flags: zheap.FlagDeleted}
	require.Same(t, tup, zheap.SatisfiesAny(tup))
}
