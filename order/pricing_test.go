package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func twoItemOrder(mode DeliveryMode) *Order {
	o := &Order{
		Items: []LineItem{
			{Name: "La Sanchopanza", Price: 12},
			{Name: "Refresco", Price: 3},
		},
		Mode: mode,
	}
	if mode == ModeDelivery {
		o.Address = "Plaza Mayor 1"
	}
	return o
}

func TestComputedTotalPickup(t *testing.T) {
	o := twoItemOrder(ModePickup)
	assert.Equal(t, 15.0, o.ComputedTotal())
}

func TestComputedTotalDeliveryAddsSurcharge(t *testing.T) {
	o := twoItemOrder(ModeDelivery)
	assert.Equal(t, 18.0, o.ComputedTotal())
}

func TestCheckTotalMatch(t *testing.T) {
	o := twoItemOrder(ModePickup)
	o.DeclaredTotal = 15

	check := CheckTotal(o)
	assert.False(t, check.Discrepancy)
	assert.Equal(t, 15.0, check.Computed)
	assert.Equal(t, 0.0, check.Delta)
}

func TestCheckTotalDiscrepancyIsReportedNotCorrected(t *testing.T) {
	o := twoItemOrder(ModePickup)
	o.DeclaredTotal = 99

	check := CheckTotal(o)
	assert.True(t, check.Discrepancy)
	assert.Equal(t, 15.0, check.Computed)
	assert.Equal(t, 84.0, check.Delta)
	// The order itself keeps the conversational total
	assert.Equal(t, 99.0, o.DeclaredTotal)
}

func TestCheckTotalFloatNoiseIsNotADiscrepancy(t *testing.T) {
	o := &Order{
		Items:         []LineItem{{Name: "a", Price: 0.1}, {Name: "b", Price: 0.2}},
		Mode:          ModePickup,
		DeclaredTotal: 0.1 + 0.2,
	}
	assert.False(t, CheckTotal(o).Discrepancy)
}
