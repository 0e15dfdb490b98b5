package models

// OrderStatus is the fulfillment state of an order
type OrderStatus string

// Order statuses
const (
	OrderAwaitingPayment     OrderStatus = "Awaiting Payment"
	OrderPendingConfirmation OrderStatus = "Pending Confirmation"
	OrderProcessing          OrderStatus = "Processing"
	OrderShipped             OrderStatus = "Shipped"
	OrderDelivered           OrderStatus = "Delivered"
	OrderCompleted           OrderStatus = "Completed"
	OrderCancelled           OrderStatus = "Cancelled"
	OrderFailed              OrderStatus = "Failed"
)

// OrderStatuses lists every order status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderAwaitingPayment,
	OrderPendingConfirmation,
	OrderProcessing,
	OrderShipped,
	OrderDelivered,
	OrderCompleted,
	OrderCancelled,
	OrderFailed,
}

// orderTransitions is the expected lifecycle. Cancelled is added for every
// non-terminal state by NextStatuses.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderAwaitingPayment:     {OrderPendingConfirmation, OrderFailed},
	OrderPendingConfirmation: {OrderProcessing, OrderFailed},
	OrderProcessing:          {OrderShipped},
	OrderShipped:             {OrderDelivered},
	OrderDelivered:           {OrderCompleted},
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is expected
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled || s == OrderFailed
}

// IsSettled reports whether payment for the order has been confirmed
func (s OrderStatus) IsSettled() bool {
	switch s {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCompleted:
		return true
	}
	return false
}

// NextStatuses returns the statuses reachable from s in the expected lifecycle
func (s OrderStatus) NextStatuses() []OrderStatus {
	if s.IsTerminal() || !s.Valid() {
		return nil
	}
	next := append([]OrderStatus{}, orderTransitions[s]...)
	return append(next, OrderCancelled)
}

// CanTransitionTo reports whether next follows s in the expected lifecycle
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range s.NextStatuses() {
		if candidate == next {
			return true
		}
	}
	return false
}

// RequestStatus is the state of a custom design request
type RequestStatus string

// Custom design request statuses
const (
	RequestUnderReview RequestStatus = "Under Review"
	RequestInProgress  RequestStatus = "In Progress"
	RequestMockupReady RequestStatus = "Mockup Ready"
	RequestCompleted   RequestStatus = "Completed"
	RequestCancelled   RequestStatus = "Cancelled"
)

// RequestStatuses lists every request status
var RequestStatuses = []RequestStatus{
	RequestUnderReview,
	RequestInProgress,
	RequestMockupReady,
	RequestCompleted,
	RequestCancelled,
}

// Valid reports whether s is a known request status
func (s RequestStatus) Valid() bool {
	for _, known := range RequestStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the request is closed
func (s RequestStatus) IsTerminal() bool {
	return s == RequestCompleted || s == RequestCancelled
}
