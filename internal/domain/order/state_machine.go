package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradelink/backend/internal/domain/shared"
)

// Actor is the authenticated principal requesting an operation on an order
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// TransitionRequest asks the state machine to move an order into a target
// status on behalf of an actor
type TransitionRequest struct {
	Actor          Actor
	Target         OrderStatus
	Reason         string
	TransporterID  *uuid.UUID
	AssignmentType AssignmentType
}

// InvalidTransitionError reports a transition the table does not allow for
// the requesting role
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
	Role Role
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("role %s cannot move order from %s to %s", e.Role, e.From, e.To)
}

// EffectKind identifies a stock side effect the application layer must
// execute when the transition is applied
type EffectKind string

const (
	// EffectDecrementStock deducts the order quantity from the wholesaler's
	// product ledger. A shortfall is fatal to the transition.
	EffectDecrementStock EffectKind = "decrement_stock"
	// EffectMirrorSystemStock creates the system-tracked ledger entry for a
	// certified order. Failure is logged and surfaced as a warning without
	// reverting the transition.
	EffectMirrorSystemStock EffectKind = "mirror_system_stock"
	// EffectRestoreStock adds the order quantity back to the wholesaler's
	// product ledger after an accepted return. Failure is non-fatal.
	EffectRestoreStock EffectKind = "restore_stock"
)

// Effect is one stock side effect of a transition
type Effect struct {
	Kind  EffectKind
	Fatal bool
}

// TransitionDecision is the outcome of the pure decision step: the move is
// authorized and table-valid, and these are the stock effects the caller
// must execute alongside Apply, in order.
type TransitionDecision struct {
	From    OrderStatus
	To      OrderStatus
	Effects []Effect
}

// StateMachine validates and applies order lifecycle transitions. Decide is
// pure; Apply mutates the aggregate only. Stock I/O is left to the caller so
// the fatal/non-fatal side-effect policy stays independently testable.
type StateMachine struct {
	table *TransitionTable
}

// NewStateMachine creates a state machine over the given transition table
func NewStateMachine(table *TransitionTable) *StateMachine {
	return &StateMachine{table: table}
}

// reasonRequired lists targets that must carry an actor-supplied reason
var reasonRequired = map[OrderStatus]bool{
	StatusRejectedByTransporter:  true,
	StatusCancelledByTransporter: true,
	StatusDisputed:               true,
	StatusReturnToWholesaler:     true,
}

// CanRead reports whether the actor may read the order. Parties to the order
// and admins may; a transporter additionally may read a free-pool offer.
func (m *StateMachine) CanRead(o *Order, actor Actor) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleRetailer:
		return o.RetailerID == actor.UserID
	case RoleWholesaler:
		return o.WholesalerID == actor.UserID
	case RoleTransporter:
		if o.TransporterID != nil {
			return *o.TransporterID == actor.UserID
		}
		return o.Status == StatusAssignedToTransporter
	}
	return false
}

// authorize checks the actor's standing to transition this order
func (m *StateMachine) authorize(o *Order, actor Actor) error {
	switch actor.Role {
	case RoleRetailer:
		if o.RetailerID != actor.UserID {
			return shared.ErrForbidden
		}
	case RoleWholesaler:
		if o.WholesalerID != actor.UserID {
			return shared.ErrForbidden
		}
	case RoleTransporter:
		if o.TransporterID != nil {
			if *o.TransporterID != actor.UserID {
				return shared.ErrForbidden
			}
			return nil
		}
		// Free-pool pickup: any transporter may act on an unassigned offer.
		if o.Status != StatusAssignedToTransporter {
			return shared.ErrForbidden
		}
	case RoleAdmin:
		// Admins have read-only visibility, no transition authority.
		return shared.ErrForbidden
	default:
		return shared.ErrUnauthorized
	}
	return nil
}

// Decide validates the requested transition without mutating anything and
// returns the effect plan the caller must execute when applying it
func (m *StateMachine) Decide(o *Order, req TransitionRequest) (*TransitionDecision, error) {
	if !req.Target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", req.Target))
	}
	if !req.Actor.Role.IsValid() {
		return nil, shared.ErrUnauthorized
	}
	if err := m.authorize(o, req.Actor); err != nil {
		return nil, err
	}
	if !m.table.CanTransition(req.Actor.Role, o.Status, req.Target) {
		return nil, &InvalidTransitionError{From: o.Status, To: req.Target, Role: req.Actor.Role}
	}
	if reasonRequired[req.Target] && req.Reason == "" {
		return nil, shared.NewDomainError("REASON_REQUIRED", fmt.Sprintf("A reason is required to enter %s", req.Target))
	}
	if req.Target == StatusAssignedToTransporter {
		switch req.AssignmentType {
		case "", AssignmentSpecific, AssignmentFree:
		default:
			return nil, shared.NewDomainError("INVALID_ASSIGNMENT_TYPE",
				fmt.Sprintf("Unknown assignment type %q", req.AssignmentType))
		}
		if req.AssignmentType == AssignmentSpecific && req.TransporterID == nil {
			return nil, shared.NewDomainError("INVALID_ASSIGNMENT_TYPE", "A specific assignment requires a transporter ID")
		}
		if req.AssignmentType == AssignmentFree && req.TransporterID != nil {
			return nil, shared.NewDomainError("INVALID_ASSIGNMENT_TYPE", "A free-pool assignment cannot target a transporter")
		}
	}

	decision := &TransitionDecision{From: o.Status, To: req.Target}
	switch req.Target {
	case StatusCertified:
		decision.Effects = []Effect{
			{Kind: EffectDecrementStock, Fatal: true},
			{Kind: EffectMirrorSystemStock, Fatal: false},
		}
	case StatusReturnAccepted:
		decision.Effects = []Effect{
			{Kind: EffectRestoreStock, Fatal: false},
		}
	}
	return decision, nil
}

// Apply mutates the aggregate according to an already-validated decision:
// status, payment status, sub-records, transporter assignment and history.
// Stock effects from the decision are NOT executed here.
func (m *StateMachine) Apply(o *Order, req TransitionRequest, decision *TransitionDecision) error {
	if o.Status != decision.From {
		return shared.ErrConcurrencyConflict
	}

	now := time.Now()
	from := o.Status

	switch decision.To {
	case StatusAssignedToTransporter:
		m.applyAssignment(o, req, from)

	case StatusAcceptedByTransporter:
		if o.TransporterID == nil {
			// Transporter picks up a free-pool offer.
			transporterID := req.Actor.UserID
			o.TransporterID = &transporterID
			o.appendAssignment(&transporterID, AssignmentFree, OutcomeAssigned, req.Reason)
			o.AddDomainEvent(NewTransporterAssignedEvent(o, &transporterID, AssignmentFree))
		} else {
			o.appendAssignment(o.TransporterID, AssignmentSpecific, OutcomeAccepted, req.Reason)
		}

	case StatusRejectedByTransporter, StatusCancelledByTransporter:
		outcome := OutcomeRejected
		if decision.To == StatusCancelledByTransporter {
			outcome = OutcomeCancelled
		}
		assignmentType := AssignmentSpecific
		if last := o.LastAssignment(); last != nil {
			assignmentType = last.Type
		}
		o.recordCancellation(req.Actor.UserID, RoleTransporter, req.Reason)
		o.appendAssignment(o.TransporterID, assignmentType, outcome, req.Reason)
		o.AddDomainEvent(NewAssignmentDeclinedEvent(o, req.Actor.UserID, outcome, req.Reason))
		o.TransporterID = nil

	case StatusDelivered:
		o.DeliveredAt = &now

	case StatusCertified:
		o.CertifiedAt = &now
		o.PaymentStatus = PaymentPaid
		o.AddDomainEvent(NewOrderCertifiedEvent(o))

	case StatusDisputed:
		o.Dispute = DeliveryDispute{
			RaisedBy: &req.Actor.UserID,
			Reason:   req.Reason,
			RaisedAt: &now,
			Resolved: false,
		}
		o.AddDomainEvent(NewOrderDisputedEvent(o, req.Actor.UserID, req.Reason))

	case StatusReturnToWholesaler:
		o.Return.RequestedBy = &req.Actor.UserID
		o.Return.Reason = req.Reason
		o.Return.RequestedAt = &now

	case StatusReturnAccepted:
		o.Return.AcceptedAt = &now
		o.PaymentStatus = PaymentRefunded
		o.AddDomainEvent(NewReturnSettledEvent(o, true, req.Reason))

	case StatusReturnRejected:
		o.Return.RejectedAt = &now
		o.Return.RejectionReason = req.Reason
		o.AddDomainEvent(NewReturnSettledEvent(o, false, req.Reason))

	case StatusCancelledByRetailer:
		o.recordCancellation(req.Actor.UserID, RoleRetailer, req.Reason)

	case StatusCancelledByWholesaler:
		o.recordCancellation(req.Actor.UserID, RoleWholesaler, req.Reason)
	}

	o.Status = decision.To
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, decision.To, req.Actor, req.Reason))

	return nil
}

// applyAssignment handles entry into assigned_to_transporter: fresh
// reassignments clear stale dispute/return/cancellation state, then the
// order is offered to a specific transporter or the free pool
func (m *StateMachine) applyAssignment(o *Order, req TransitionRequest, from OrderStatus) {
	switch from {
	case StatusRejectedByTransporter, StatusCancelledByTransporter, StatusDisputed, StatusReturnRejected:
		o.clearResolutionState()
	}

	assignmentType := req.AssignmentType
	if assignmentType == "" {
		if req.TransporterID != nil {
			assignmentType = AssignmentSpecific
		} else {
			assignmentType = AssignmentFree
		}
	}

	o.TransporterID = req.TransporterID
	o.appendAssignment(req.TransporterID, assignmentType, OutcomeAssigned, req.Reason)
	o.AddDomainEvent(NewTransporterAssignedEvent(o, req.TransporterID, assignmentType))
}
