package zheap

// faultScopeVisibility is this package's fault-injection scope, kept
// distinct from pkg/util's own FAULTS_SCOPE_TXN so a test can enable
// one without the other. It gates the two FIXME arms the visibility
// decider inherits from its source: an aborted producer under
// SatisfiesDirty, and an aborted producer under SatisfiesUpdate.
const faultScopeVisibility = 1

const (
	faultDirtyAbortedProducer  = "dirty_aborted_producer"
	faultUpdateAbortedProducer = "update_aborted_producer"
)
