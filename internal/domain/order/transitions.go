package order

// TransitionTable maps (actor role, current status) to the set of statuses
// that actor may move an order into. It is built once from a static literal
// and holds no mutable state, so the full role x status product can be
// tested exhaustively.
type TransitionTable struct {
	rules map[Role]map[OrderStatus][]OrderStatus
}

// NewTransitionTable builds the transition table for the order lifecycle.
//
// Admin has no rows: admins get read-only visibility and no transition
// authority.
func NewTransitionTable() *TransitionTable {
	return &TransitionTable{
		rules: map[Role]map[OrderStatus][]OrderStatus{
			RoleRetailer: {
				StatusPending:   {StatusCancelledByRetailer},
				StatusAccepted:  {StatusCancelledByRetailer},
				StatusDelivered: {StatusCertified, StatusDisputed},
				StatusCertified: {StatusDisputed},
			},
			RoleWholesaler: {
				StatusPending:    {StatusAccepted, StatusRejected},
				StatusAccepted:   {StatusProcessing, StatusCancelledByWholesaler},
				StatusProcessing: {StatusAssignedToTransporter, StatusCancelledByWholesaler},
				// Reassignment to a different transporter is allowed until a
				// transporter accepts.
				StatusAssignedToTransporter:  {StatusAssignedToTransporter, StatusCancelledByWholesaler},
				StatusRejectedByTransporter:  {StatusAssignedToTransporter, StatusCancelledByWholesaler},
				StatusCancelledByTransporter: {StatusAssignedToTransporter, StatusCancelledByWholesaler},
				StatusDisputed:               {StatusAssignedToTransporter},
				StatusReturnToWholesaler:     {StatusReturnAccepted, StatusReturnRejected},
				StatusReturnRejected:         {StatusAssignedToTransporter},
			},
			RoleTransporter: {
				StatusAssignedToTransporter: {StatusAcceptedByTransporter, StatusRejectedByTransporter},
				StatusAcceptedByTransporter: {StatusInTransit, StatusCancelledByTransporter},
				StatusInTransit:             {StatusDelivered, StatusCancelledByTransporter},
				StatusDisputed:              {StatusReturnToWholesaler},
			},
		},
	}
}

// AllowedTargets returns the statuses the given role may move an order in the
// given status into. The returned slice is a copy.
func (t *TransitionTable) AllowedTargets(role Role, from OrderStatus) []OrderStatus {
	byStatus, ok := t.rules[role]
	if !ok {
		return nil
	}
	targets, ok := byStatus[from]
	if !ok {
		return nil
	}
	out := make([]OrderStatus, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether role may move an order from `from` to `to`
func (t *TransitionTable) CanTransition(role Role, from, to OrderStatus) bool {
	byStatus, ok := t.rules[role]
	if !ok {
		return false
	}
	for _, target := range byStatus[from] {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no role can move an order out of the given
// status
func (t *TransitionTable) IsTerminal(status OrderStatus) bool {
	for _, byStatus := range t.rules {
		if len(byStatus[status]) > 0 {
			return false
		}
	}
	return true
}
