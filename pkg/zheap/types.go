// Package zheap implements a tuple visibility engine for an undo-log
// MVCC table format: given a tuple's header state and a transaction
// snapshot, it decides which version of a row (if any) is visible,
// walking the page's undo chain when the in-place header alone cannot
// answer the question.
//
// The package owns no storage. Buffer management, transaction status,
// undo record persistence, and page layout are supplied by the caller
// through the Oracle, UndoStore, and PageMetadata interfaces; pkg/zfixture
// ships one in-memory implementation of each for tests and the CLI.
package zheap

import "github.com/riftdb/zheap/pkg/util"

// Xid is a transaction identifier. Zero is never a valid xid.
type Xid uint64

// InvalidXid marks the absence of a transaction identifier, e.g. after
// an undo chain has been walked past its root.
const InvalidXid Xid = 0

// Cid is a command identifier, scoped to a single transaction.
type Cid uint32

// InvalidCid marks the absence of a recoverable command id.
const InvalidCid Cid = ^Cid(0)

// BlockNumber identifies a page within a table.
type BlockNumber uint32

// OffsetNumber identifies a tuple's slot within a page.
type OffsetNumber uint16

// TupleID is a tuple's self identifier (ctid in the original design).
type TupleID struct {
	Block  BlockNumber
	Offset OffsetNumber
}

// InvalidTupleID is the zero TupleID, used where no successor exists.
var InvalidTupleID = TupleID{}

// UndoPtr addresses a single undo record inside a table's undo log. It
// is an opaque, comparable value rather than a raw memory pointer.
type UndoPtr struct {
	Block  BlockNumber
	Offset uint64
}

// InvalidUndoPtr is UndoPtr's zero value, meaning "no undo record".
var InvalidUndoPtr = UndoPtr{}

// Valid reports whether p addresses a real undo record.
func (p UndoPtr) Valid() bool {
	return p != InvalidUndoPtr
}

// TupleFlags is the tuple header lifecycle bitmask. Bits are not
// mutually exclusive except where noted next to each constant.
type TupleFlags uint16

const (
	// FlagDeleted marks a tuple that has been logically deleted.
	// Mutually exclusive with FlagUpdated.
	FlagDeleted TupleFlags = 1 << iota
	// FlagUpdated marks a tuple that was the source of a non-in-place
	// update; it is logically deleted and points at a successor tid.
	// Mutually exclusive with FlagDeleted.
	FlagUpdated
	// FlagInplaceUpdated marks a tuple updated in place, whose prior
	// image lives in undo. Mutually exclusive with FlagDeleted,
	// FlagUpdated, and FlagXidLockOnly.
	FlagInplaceUpdated
	// FlagXidLockOnly marks a tuple whose latest xid touched it only
	// to acquire a lock; content is unchanged. Mutually exclusive with
	// FlagDeleted, FlagUpdated, and FlagInplaceUpdated.
	FlagXidLockOnly
	// FlagInvalidXactSlot marks a tuple whose transaction slot has
	// been recycled; the authoritative xid/cid must be recovered from
	// undo via resolveInvalidSlot.
	FlagInvalidXactSlot
)

// Has reports whether any bit of flag is set in f.
func (f TupleFlags) Has(flag TupleFlags) bool {
	return util.FlagIsSet(uint16(f), uint16(flag))
}

// DeletedOrUpdated reports whether the tuple is logically gone, either
// by outright deletion or as the source row of a non-in-place update.
func (f TupleFlags) DeletedOrUpdated() bool {
	return f.Has(FlagDeleted) || f.Has(FlagUpdated)
}

// InplaceOrLockOnly reports whether the tuple's latest xid changed it
// in place or only locked it, without logically removing it.
func (f TupleFlags) InplaceOrLockOnly() bool {
	return f.Has(FlagInplaceUpdated) || f.Has(FlagXidLockOnly)
}

// FrozenSlot is the sentinel transaction-slot index meaning "no live
// transaction association; treat as committed in the deep past."
const FrozenSlot = -1

// UndoRecordType classifies what an undo record describes.
type UndoRecordType uint8

const (
	UndoInplaceUpdate UndoRecordType = iota
	UndoUpdate
	UndoDelete
	UndoInsert
	UndoXidLockOnly
	UndoInvalidXactSlot
)

// UndoOper classifies a version recovered from undo, replacing the
// sentinel integers the design was distilled from with a closed enum.
type UndoOper uint8

const (
	// OperRoot means the recovered version is the tuple's original
	// insert; there is no earlier version.
	OperRoot UndoOper = iota
	OperInplaceUpdated
	OperXidLockOnly
)

// Tuple is a single row version, either the one currently stored
// in-place on a page or one reconstructed from undo. Payload is opaque
// to the engine.
type Tuple struct {
	Self    TupleID
	Slot    int
	Flags   TupleFlags
	Payload []byte
}

// UndoRecord is an immutable undo log entry.
type UndoRecord struct {
	Type    UndoRecordType
	PrevXid Xid
	Cid     Cid
	BlkPrev UndoPtr
	// Payload carries type-specific data: the prior tuple image for
	// UndoInplaceUpdate/UndoDelete/UndoUpdate, nil for UndoInsert.
	Payload []byte
	// Successor is populated for UndoUpdate: the tid of the row
	// version this transaction moved the data to.
	Successor TupleID
	// Slot is the transaction slot the reconstructed prior version
	// refers to, taken from the undo record's own header snapshot
	// rather than from Payload, which stays opaque application data.
	Slot int
	// Flags is the reconstructed prior version's tuple flags, again
	// from the undo record's header snapshot.
	Flags TupleFlags
}

// Snapshot is the observer context for MVCC visibility. Whether a given
// xid's effects are hidden by the snapshot is the Oracle's job
// (InMVCCSnapshot), not the snapshot's own: the snapshot here is inert
// data the oracle interprets.
type Snapshot struct {
	// Curcid is the current command id of the observing transaction.
	Curcid Cid
	// Xmin and Xmax bound the horizon of the snapshot; SatisfiesDirty
	// narrows them onto the producer of a concurrently visible change.
	Xmin Xid
	Xmax Xid
}
