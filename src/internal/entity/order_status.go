package entity

// OrderStatus is the closed set of order lifecycle states. Transitions are
// validated against allowedTransitions, never against caller-supplied strings.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusPickedUp  OrderStatus = "PICKED_UP"
	StatusInTransit OrderStatus = "IN_TRANSIT"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// allowedTransitions is the order state flow as code. CANCELLED is reachable
// from PENDING and CONFIRMED only; once PREPARING begins the restaurant has
// committed resources.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusPickedUp},
	StatusPickedUp:  {StatusInTransit},
	StatusInTransit: {StatusDelivered},
}

func CanTransition(from, to OrderStatus) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusPickedUp, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentOnline PaymentMethod = "ONLINE"
)

type CancellationReason string

const (
	CancelCustomerRequest   CancellationReason = "CUSTOMER_REQUEST"
	CancelRestaurantClosed  CancellationReason = "RESTAURANT_CLOSED"
	CancelOutOfStock        CancellationReason = "OUT_OF_STOCK"
	CancelDriverUnavailable CancellationReason = "DRIVER_UNAVAILABLE"
	CancelPaymentFailed     CancellationReason = "PAYMENT_FAILED"
	CancelOther             CancellationReason = "OTHER"
)

type OfferOutcome string

const (
	OfferPending  OfferOutcome = "PENDING"
	OfferAccepted OfferOutcome = "ACCEPTED"
	OfferRejected OfferOutcome = "REJECTED"
	OfferExpired  OfferOutcome = "EXPIRED"
)

type IssueType string

const (
	IssueTraffic         IssueType = "TRAFFIC"
	IssueWeather         IssueType = "WEATHER"
	IssueVehicle         IssueType = "VEHICLE"
	IssueAccident        IssueType = "ACCIDENT"
	IssueWrongAddress    IssueType = "WRONG_ADDRESS"
	IssueCustomerIssue   IssueType = "CUSTOMER_ISSUE"
	IssueRestaurantDelay IssueType = "RESTAURANT_DELAY"
	IssueOther           IssueType = "OTHER"
)

func (t IssueType) Valid() bool {
	switch t {
	case IssueTraffic, IssueWeather, IssueVehicle, IssueAccident,
		IssueWrongAddress, IssueCustomerIssue, IssueRestaurantDelay, IssueOther:
		return true
	}
	return false
}
