package main

import (
	"fmt"
	"sort"

	"github.com/govalues/decimal"

	"github.com/riftdb/zheap/pkg/util"
	"github.com/riftdb/zheap/pkg/zfixture"
	"github.com/riftdb/zheap/pkg/zheap"
)

func undoTypeFromString(s string) (zheap.UndoRecordType, error) {
	switch s {
	case "inplace_update":
		return zheap.UndoInplaceUpdate, nil
	case "update":
		return zheap.UndoUpdate, nil
	case "delete":
		return zheap.UndoDelete, nil
	case "insert":
		return zheap.UndoInsert, nil
	case "xid_lock_only":
		return zheap.UndoXidLockOnly, nil
	case "invalid_xact_slot":
		return zheap.UndoInvalidXactSlot, nil
	default:
		return 0, fmt.Errorf("zheapctl: unknown undo record type %q", s)
	}
}

func tupleFlags(tc TupleConfig) zheap.TupleFlags {
	var f zheap.TupleFlags
	if tc.Deleted {
		f |= zheap.FlagDeleted
	}
	if tc.Updated {
		f |= zheap.FlagUpdated
	}
	if tc.Inplace {
		f |= zheap.FlagInplaceUpdated
	}
	if tc.LockOnly {
		f |= zheap.FlagXidLockOnly
	}
	if tc.Invalid {
		f |= zheap.FlagInvalidXactSlot
	}
	return f
}

func undoFlags(uc UndoConfig) zheap.TupleFlags {
	var f zheap.TupleFlags
	if uc.FlagDeleted {
		f |= zheap.FlagDeleted
	}
	if uc.FlagUpdated {
		f |= zheap.FlagUpdated
	}
	if uc.FlagInplace {
		f |= zheap.FlagInplaceUpdated
	}
	if uc.FlagLock {
		f |= zheap.FlagXidLockOnly
	}
	return f
}

func payloadFor(balance string) []byte {
	if balance == "" {
		return nil
	}
	d, err := decimal.Parse(balance)
	if err != nil {
		return []byte(balance)
	}
	return zfixture.EncodeBalance(d)
}

// buildFixture materializes a Config into a zfixture.Fixture and the
// live tuples it describes, in offset order, for explain and audit to
// operate on. It never mutates cfg.
func buildFixture(cfg *Config) (*zfixture.Fixture, []*zheap.Tuple, error) {
	sc := cfg.Store
	fx := zfixture.New(zheap.Xid(sc.Current), zheap.Xid(sc.Horizon), sc.NumSlots)

	for _, s := range sc.Slots {
		if s.Committed {
			fx.Oracle.MarkCommitted(zheap.Xid(s.Xid))
		}
		if s.InProgress {
			fx.Oracle.MarkInProgress(zheap.Xid(s.Xid))
		}
		if s.HideFromSnaps {
			fx.Oracle.HideFromSnapshot(zheap.Xid(s.Xid))
		}
		var ptr zheap.UndoPtr
		if s.HasUndo {
			ptr = zheap.UndoPtr{Block: zheap.BlockNumber(s.UndoBlock), Offset: s.UndoOffset}
		}
		fx.Page.SetSlot(s.Index, zheap.Xid(s.Xid), ptr)
	}

	for _, u := range sc.Undo {
		typ, err := undoTypeFromString(u.Type)
		if err != nil {
			return nil, nil, err
		}
		ptr := zheap.UndoPtr{Block: zheap.BlockNumber(u.Block), Offset: u.Offset}
		var blkPrev zheap.UndoPtr
		if u.BlkPrevSet {
			blkPrev = zheap.UndoPtr{Block: zheap.BlockNumber(u.BlkBlock), Offset: u.BlkPrev}
		}
		rec := zheap.UndoRecord{
			Type:    typ,
			PrevXid: zheap.Xid(u.PrevXid),
			Cid:     zheap.Cid(u.Cid),
			BlkPrev: blkPrev,
			Payload: payloadFor(u.Balance),
			Slot:    u.Slot,
			Flags:   undoFlags(u),
		}
		if u.SuccBlock != 0 || u.SuccOffset != 0 {
			rec.Successor = zheap.TupleID{Block: zheap.BlockNumber(u.SuccBlock), Offset: zheap.OffsetNumber(u.SuccOffset)}
		}
		fx.Undo.Put(ptr, rec)
		if u.Discarded {
			fx.Undo.Discard(ptr)
		}
	}

	tuples := make([]*zheap.Tuple, 0, len(sc.Tuples))
	for _, tc := range sc.Tuples {
		tid := zheap.TupleID{Block: zheap.BlockNumber(tc.Block), Offset: zheap.OffsetNumber(tc.Offset)}
		if tc.HasCid {
			fx.Page.SetSlotCid(tc.Slot, tid, zheap.Cid(tc.Cid))
		}
		tuples = append(tuples, &zheap.Tuple{
			Self:    tid,
			Slot:    tc.Slot,
			Flags:   tupleFlags(tc),
			Payload: payloadFor(tc.Balance),
		})
	}
	sort.Slice(tuples, func(i, j int) bool {
		if tuples[i].Self.Block != tuples[j].Self.Block {
			return tuples[i].Self.Block < tuples[j].Self.Block
		}
		return tuples[i].Self.Offset < tuples[j].Self.Offset
	})

	return fx, tuples, nil
}

func findTuple(tuples []*zheap.Tuple, block uint32, offset uint16) (*zheap.Tuple, error) {
	i := util.FindIf(tuples, func(t *zheap.Tuple) bool {
		return uint32(t.Self.Block) == block && uint16(t.Self.Offset) == offset
	})
	if i < 0 {
		return nil, fmt.Errorf("zheapctl: no tuple at block %d offset %d in config", block, offset)
	}
	return tuples[i], nil
}
