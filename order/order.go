// Package order implements the order-extraction, validation and
// receipt-generation pipeline: it recognizes terminal model replies, parses the
// embedded payload into a validated Order, checks the declared total against a
// recomputed one and renders the invoice ticket.
package order

// DeliveryMode distinguishes pickup orders from home delivery.
type DeliveryMode string

const (
	ModePickup   DeliveryMode = "recogida"
	ModeDelivery DeliveryMode = "domicilio"
)

// LineItem is one dish with its price. It only exists inside an Order.
type LineItem struct {
	Name  string
	Price float64
}

// Order is a validated, immutable order extracted from a single payload.
// It is constructed only by ParseOrder; no partial Order is ever produced.
type Order struct {
	Items         []LineItem
	Mode          DeliveryMode
	Address       string // non-empty iff Mode is ModeDelivery
	DeclaredTotal float64
}

// IsDelivery reports whether the order is for home delivery.
func (o *Order) IsDelivery() bool {
	return o.Mode == ModeDelivery
}
