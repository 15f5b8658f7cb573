package entity

// BridgeStatus is the derived lifecycle status of a bridge leg. It is a pure
// function of the record and the current state of both chains, recomputed on
// every poll and never persisted.
type BridgeStatus string

const (
	StatusDepositPending    BridgeStatus = "deposit-pending"
	StatusWaitingToProve    BridgeStatus = "waiting-to-prove"
	StatusReadyToProve      BridgeStatus = "ready-to-prove"
	StatusWaitingToFinalize BridgeStatus = "waiting-to-finalize"
	StatusReadyToFinalize   BridgeStatus = "ready-to-finalize"
	StatusFinalized         BridgeStatus = "finalized"
)

// withdrawalOrder defines the strict progression of the withdrawal path.
// Chain state only ever moves a withdrawal forward through this order,
// transient query failures yield no status rather than an earlier one.
var withdrawalOrder = map[BridgeStatus]int{
	StatusWaitingToProve:    0,
	StatusReadyToProve:      1,
	StatusWaitingToFinalize: 2,
	StatusReadyToFinalize:   3,
	StatusFinalized:         4,
}

func (s BridgeStatus) IsTerminal() bool {
	return s == StatusFinalized
}

// IsWithdrawalStatus tells whether s belongs to the withdrawal path.
// StatusFinalized is shared by both paths.
func (s BridgeStatus) IsWithdrawalStatus() bool {
	_, ok := withdrawalOrder[s]
	return ok
}

// Before reports whether s precedes other in the withdrawal progression.
// Statuses outside the withdrawal path are never ordered.
func (s BridgeStatus) Before(other BridgeStatus) bool {
	a, ok1 := withdrawalOrder[s]
	b, ok2 := withdrawalOrder[other]
	return ok1 && ok2 && a < b
}
