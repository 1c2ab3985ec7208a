package order

import "math"

// DeliverySurcharge is the fixed transport fee, in euros, applied only to
// delivery orders.
const DeliverySurcharge = 3.0

// totalEpsilon absorbs float accumulation noise; the policy tolerance itself
// is zero.
const totalEpsilon = 1e-9

// TotalCheck is the result of recomputing an order total.
type TotalCheck struct {
	Computed    float64
	Declared    float64
	Delta       float64 // Declared - Computed
	Discrepancy bool
}

// ComputedTotal derives the expected total: the sum of line-item prices plus
// the delivery surcharge when applicable.
func (o *Order) ComputedTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price
	}
	if o.IsDelivery() {
		total += DeliverySurcharge
	}
	return total
}

// CheckTotal compares the declared total against the recomputed one. A
// discrepancy is reported, never corrected: the order remains usable for
// rendering and storage with the total as stated in the conversation.
func CheckTotal(o *Order) TotalCheck {
	computed := o.ComputedTotal()
	delta := o.DeclaredTotal - computed
	return TotalCheck{
		Computed:    computed,
		Declared:    o.DeclaredTotal,
		Delta:       delta,
		Discrepancy: math.Abs(delta) > totalEpsilon,
	}
}
