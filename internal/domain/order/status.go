package order

// OrderStatus represents the lifecycle status of a trade order
type OrderStatus string

const (
	StatusPending                OrderStatus = "pending"
	StatusAccepted               OrderStatus = "accepted"
	StatusRejected               OrderStatus = "rejected"
	StatusProcessing             OrderStatus = "processing"
	StatusAssignedToTransporter  OrderStatus = "assigned_to_transporter"
	StatusAcceptedByTransporter  OrderStatus = "accepted_by_transporter"
	StatusInTransit              OrderStatus = "in_transit"
	StatusDelivered              OrderStatus = "delivered"
	StatusCertified              OrderStatus = "certified"
	StatusDisputed               OrderStatus = "disputed"
	StatusReturnToWholesaler     OrderStatus = "return_to_wholesaler"
	StatusReturnAccepted         OrderStatus = "return_accepted"
	StatusReturnRejected         OrderStatus = "return_rejected"
	StatusCancelledByRetailer    OrderStatus = "cancelled_by_retailer"
	StatusCancelledByWholesaler  OrderStatus = "cancelled_by_wholesaler"
	StatusRejectedByTransporter  OrderStatus = "rejected_by_transporter"
	StatusCancelledByTransporter OrderStatus = "cancelled_by_transporter"
)

// AllStatuses lists every order status in lifecycle order
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusAccepted,
	StatusRejected,
	StatusProcessing,
	StatusAssignedToTransporter,
	StatusAcceptedByTransporter,
	StatusInTransit,
	StatusDelivered,
	StatusCertified,
	StatusDisputed,
	StatusReturnToWholesaler,
	StatusReturnAccepted,
	StatusReturnRejected,
	StatusCancelledByRetailer,
	StatusCancelledByWholesaler,
	StatusRejectedByTransporter,
	StatusCancelledByTransporter,
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// PaymentStatus is a label set as a side effect of lifecycle transitions,
// never transitionable on its own
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Role identifies the kind of actor operating on an order
type Role string

const (
	RoleRetailer    Role = "retailer"
	RoleWholesaler  Role = "wholesaler"
	RoleTransporter Role = "transporter"
	RoleAdmin       Role = "admin"
)

// AllRoles lists every actor role
var AllRoles = []Role{RoleRetailer, RoleWholesaler, RoleTransporter, RoleAdmin}

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleRetailer, RoleWholesaler, RoleTransporter, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// deletableStatuses are the only statuses in which the owning retailer may
// hard-delete an order
var deletableStatuses = map[OrderStatus]bool{
	StatusPending:               true,
	StatusRejected:              true,
	StatusReturnRejected:        true,
	StatusReturnAccepted:        true,
	StatusCancelledByWholesaler: true,
}

// IsDeletable reports whether an order in this status may be deleted by its
// retailer
func (s OrderStatus) IsDeletable() bool {
	return deletableStatuses[s]
}
