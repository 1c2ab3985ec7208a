package order

import (
	"fmt"
	"strings"
	"time"
)

const (
	receiptWidth  = 40
	receiptHeader = "RESTAURANTE DON QUIJOTE"
	receiptFooter = "¡Gracias por su pedido, noble caballero o dama!"
)

// Receipt is a rendering of a validated Order. It is derived display state;
// the persisted record stays authoritative.
type Receipt struct {
	Text        string
	GeneratedAt time.Time
}

// RenderReceipt renders a validated Order as a monospace ticket. It is pure
// and deterministic for a given order and timestamp, and never fails: an
// unexpected internal error yields a degraded error document instead of
// propagating.
func RenderReceipt(o *Order, at time.Time) (r Receipt) {
	r.GeneratedAt = at
	defer func() {
		if rec := recover(); rec != nil {
			r.Text = fmt.Sprintf("No se pudo generar la factura: %v", rec)
		}
	}()

	var b strings.Builder
	divider := strings.Repeat("-", receiptWidth)

	b.WriteString(center(receiptHeader) + "\n")
	b.WriteString(center(at.Format("02/01/2006 15:04")) + "\n")
	b.WriteString(divider + "\n")

	for _, item := range o.Items {
		b.WriteString(ticketLine(item.Name, item.Price))
	}
	b.WriteString(divider + "\n")

	if o.IsDelivery() {
		b.WriteString("Dirección de entrega: " + o.Address + "\n")
		b.WriteString(ticketLine("Gastos de envío", DeliverySurcharge))
		b.WriteString(divider + "\n")
	}

	// The conversational total is what the customer confirmed; it is shown
	// even when the recomputed total disagrees.
	b.WriteString(ticketLine("TOTAL", o.DeclaredTotal))
	b.WriteString("\n" + receiptFooter + "\n")

	r.Text = b.String()
	return r
}

func ticketLine(label string, amount float64) string {
	price := fmt.Sprintf("%.2f €", amount)
	pad := receiptWidth - len([]rune(label)) - len([]rune(price))
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + price + "\n"
}

func center(s string) string {
	pad := (receiptWidth - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
