package domain

import "time"

// Product is a single catalog entry. Prices are whole rupees.
type Product struct {
	ID       string
	Name     string
	Price    int64
	Category string
	ImageURL string
	ShopName string
	Pincode  string
}

// Category groups products for browsing. The "all" category matches everything.
type Category struct {
	ID       string
	Label    string
	ImageURL string
}

// Offer is a promotional banner shown on the storefront slider.
type Offer struct {
	ID    string
	Text  string
	Theme string
}

// Language is a UI language the client may switch to.
type Language struct {
	Code  string
	Label string
}

// DeliverySlot is an informational delivery window; slots are not reservable.
type DeliverySlot struct {
	ID     string
	Label  string
	Window string
}

// CartItem ties a product snapshot to a quantity inside a cart.
type CartItem struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int64
}

// LineTotal returns the extended price for the line.
func (i CartItem) LineTotal() int64 {
	return i.UnitPrice * i.Quantity
}

// Cart is the per-user mutable ledger of items. Item order is insertion order.
type Cart struct {
	UserID    string
	Items     []CartItem
	UpdatedAt time.Time
}

// Subtotal sums the extended price of every line.
func (c Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// PriceQuote breaks down the amount payable for a delivery.
type PriceQuote struct {
	Subtotal       int64
	DeliveryFee    int64
	NightSurcharge int64
	Total          int64
}

// DeliveryContext is the synced delivery location for a user. Distance is
// unusable until Synced is true.
type DeliveryContext struct {
	UserID     string
	Address    string
	DistanceKm int64
	Synced     bool
	SyncedAt   time.Time
}

// PaymentMode is the settlement choice captured on an order. No payment is
// processed server side.
type PaymentMode string

const (
	PaymentModeCOD PaymentMode = "COD"
	PaymentModeUPI PaymentMode = "UPI"
)

// Valid reports whether the payment mode is one the client may submit.
func (m PaymentMode) Valid() bool {
	return m == PaymentModeCOD || m == PaymentModeUPI
}

// Order is an immutable snapshot taken at placement time plus a mutable status.
type Order struct {
	ID          string
	UserID      string
	Items       []CartItem
	Quote       PriceQuote
	PaymentMode PaymentMode
	Address     string
	DistanceKm  int64
	Status      OrderStatus
	PlacedAt    time.Time
	UpdatedAt   time.Time
}

// UserProfile is the identity surface returned to the client.
type UserProfile struct {
	UID   string
	Email string
	Name  string
}

// AssistantReply is a structured help-desk answer.
type AssistantReply struct {
	Answer   string
	Category string
	VideoURL string
}

// AssistantTurn is one completed exchange in a live session transcript.
type AssistantTurn struct {
	ID          string
	UserText    string
	ModelText   string
	CompletedAt time.Time
}
