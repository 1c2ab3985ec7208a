package order

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Wire field names of the payload the persona prompt asks the model to emit.
// They are part of the upstream contract and stay in Spanish on the wire.
const (
	FieldItems   = "viandas"
	FieldPrices  = "precios_viandas"
	FieldMode    = "modo_entrega"
	FieldAddress = "direccion_entrega"
	FieldTotal   = "total"
)

// Parser-level failures. All are non-fatal: the session stays usable and the
// order state is cleared.
var (
	ErrMalformedPayload       = errors.New("payload is not a valid JSON document")
	ErrMissingDeliveryAddress = errors.New("delivery order without a delivery address")
	ErrItemPriceMismatch      = errors.New("item list and price list differ in length")
)

// IncompleteOrderError reports which required payload fields are absent.
type IncompleteOrderError struct {
	Missing []string
}

func (e *IncompleteOrderError) Error() string {
	return "incomplete order: missing " + strings.Join(e.Missing, ", ")
}

// InvalidPriceError reports a price that is not a non-negative number.
type InvalidPriceError struct {
	Index int
	Value any
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price at position %d: %v", e.Index, e.Value)
}

// wireOrder is the legacy parallel-array shape of the payload. Pointer fields
// distinguish absent from zero-valued; prices stay untyped so a non-numeric
// entry is reported as InvalidPrice rather than a decode failure.
type wireOrder struct {
	Viandas          *[]string `json:"viandas"`
	PreciosViandas   *[]any    `json:"precios_viandas"`
	ModoEntrega      *string   `json:"modo_entrega"`
	DireccionEntrega string    `json:"direccion_entrega"`
	Total            *float64  `json:"total"`
}

// ParseOrder decodes a candidate payload into a validated Order. Validation is
// all-or-nothing: on any failure it returns a nil Order and a specific reason.
func ParseOrder(payload string) (*Order, error) {
	var w wireOrder
	if err := sonic.Unmarshal([]byte(payload), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var missing []string
	if w.Viandas == nil {
		missing = append(missing, FieldItems)
	}
	if w.PreciosViandas == nil {
		missing = append(missing, FieldPrices)
	}
	if w.ModoEntrega == nil {
		missing = append(missing, FieldMode)
	}
	if w.Total == nil {
		missing = append(missing, FieldTotal)
	}
	if len(missing) > 0 {
		return nil, &IncompleteOrderError{Missing: missing}
	}

	mode := ModePickup
	if DeliveryMode(*w.ModoEntrega) == ModeDelivery {
		mode = ModeDelivery
	}

	address := strings.TrimSpace(w.DireccionEntrega)
	if mode == ModeDelivery && address == "" {
		return nil, ErrMissingDeliveryAddress
	}

	if len(*w.Viandas) != len(*w.PreciosViandas) {
		return nil, ErrItemPriceMismatch
	}

	items := make([]LineItem, len(*w.Viandas))
	for i, name := range *w.Viandas {
		price, err := coercePrice((*w.PreciosViandas)[i])
		if err != nil {
			return nil, &InvalidPriceError{Index: i, Value: (*w.PreciosViandas)[i]}
		}
		items[i] = LineItem{Name: name, Price: price}
	}

	if mode != ModeDelivery {
		address = ""
	}

	return &Order{
		Items:         items,
		Mode:          mode,
		Address:       address,
		DeclaredTotal: *w.Total,
	}, nil
}

// coercePrice accepts JSON numbers and numeric strings; anything else, or a
// negative value, is invalid.
func coercePrice(v any) (float64, error) {
	var price float64
	switch n := v.(type) {
	case float64:
		price = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, err
		}
		price = parsed
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price: %v", price)
	}
	return price, nil
}
