package domain

// OrderStatus is one stage of the fulfilment lifecycle. Progression is
// strictly forward, one stage at a time.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "Placed"
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
)

var orderStatusSequence = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

// OrderStatusSequence returns the lifecycle stages in order.
func OrderStatusSequence() []OrderStatus {
	out := make([]OrderStatus, len(orderStatusSequence))
	copy(out, orderStatusSequence)
	return out
}

// Index returns the zero-based position in the lifecycle, or -1 when the
// status is unknown.
func (s OrderStatus) Index() int {
	for i, status := range orderStatusSequence {
		if status == s {
			return i
		}
	}
	return -1
}

// Valid reports whether the status is a known lifecycle stage.
func (s OrderStatus) Valid() bool {
	return s.Index() >= 0
}

// Terminal reports whether the status has no successor.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered
}

// Next returns the following stage. ok is false for Delivered and for
// unknown statuses.
func (s OrderStatus) Next() (OrderStatus, bool) {
	idx := s.Index()
	if idx < 0 || idx >= len(orderStatusSequence)-1 {
		return "", false
	}
	return orderStatusSequence[idx+1], true
}

// TrackingStepState marks a tracking step relative to the current status.
type TrackingStepState string

const (
	TrackingStepDone    TrackingStepState = "done"
	TrackingStepCurrent TrackingStepState = "current"
	TrackingStepPending TrackingStepState = "pending"
)

// TrackingStep pairs a lifecycle stage with its progress state.
type TrackingStep struct {
	Status OrderStatus
	State  TrackingStepState
}

// TrackingSteps derives the full timeline for the order's current status.
// Steps before the status are done, the status itself is current, later
// steps are pending.
func (o Order) TrackingSteps() []TrackingStep {
	current := o.Status.Index()
	steps := make([]TrackingStep, 0, len(orderStatusSequence))
	for i, status := range orderStatusSequence {
		state := TrackingStepPending
		switch {
		case i < current:
			state = TrackingStepDone
		case i == current:
			state = TrackingStepCurrent
		}
		steps = append(steps, TrackingStep{Status: status, State: state})
	}
	return steps
}
