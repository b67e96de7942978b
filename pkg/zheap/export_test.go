package zheap

// Exported aliases for unexported identifiers that external tests in
// package zheap_test need, so those tests can also import zfixture
// (which imports zheap) without an import cycle.

const (
	FaultScopeVisibility       = faultScopeVisibility
	FaultDirtyAbortedProducer  = faultDirtyAbortedProducer
	FaultUpdateAbortedProducer = faultUpdateAbortedProducer
)

var (
	ResolveInvalidSlot = resolveInvalidSlot
	WalkStep           = walkStep
)
