package zfixture

import (
	"sort"

	"github.com/riftdb/zheap/pkg/zheap"
)

// Fixture bundles the three collaborators the visibility engine needs
// plus the horizon it was built with.
type Fixture struct {
	Oracle  *Oracle
	Undo    *UndoLog
	Page    *Page
	Horizon zheap.Xid
}

// New returns a Fixture with an empty page of numSlots slots.
func New(current, horizon zheap.Xid, numSlots int) *Fixture {
	return &Fixture{
		Oracle:  NewOracle(current),
		Undo:    NewUndoLog(),
		Page:    NewPage(numSlots),
		Horizon: horizon,
	}
}

// Row is a live tuple plus the tuples reachable behind it in undo, in
// root-first order, useful for tests and cmd/zheapctl's explain command
// to print a whole chain without re-walking it through the engine.
type Row struct {
	Live  *zheap.Tuple
	Chain []*zheap.Tuple
}

// TableScan iterates every live tuple on the fixture's page in offset
// order. It exists for pkg/vacuumaudit, which needs a TupleSource and
// has no SQL layer to get one from.
type TableScan struct {
	rows []*zheap.Tuple
}

// NewTableScan returns a scan over the given live tuples, sorted by
// offset the way a real page scan would present them.
func NewTableScan(rows ...*zheap.Tuple) *TableScan {
	sorted := append([]*zheap.Tuple(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Self.Block != sorted[j].Self.Block {
			return sorted[i].Self.Block < sorted[j].Self.Block
		}
		return sorted[i].Self.Offset < sorted[j].Self.Offset
	})
	return &TableScan{rows: sorted}
}

func (s *TableScan) Tuples() []*zheap.Tuple {
	return s.rows
}
