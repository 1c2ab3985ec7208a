package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quixote-kitchen/comanda/chat"
	"github.com/quixote-kitchen/comanda/order"
	"github.com/quixote-kitchen/comanda/store"
)

// State of a conversation. A new user turn is accepted only while not
// awaiting a reply; Terminal means the last reply produced a validated order
// and returns to Idle on the next turn.
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
	StateTerminal
)

// Status classifies the outcome of one submitted turn.
type Status string

const (
	StatusReply        Status = "reply"         // ordinary conversation
	StatusOrderPlaced  Status = "order_placed"  // validated order, receipt rendered
	StatusOrderInvalid Status = "order_invalid" // marker present but payload rejected
	StatusModelFailed  Status = "model_failed"  // collaborator call failed
)

// ErrTurnInFlight is returned when a turn is submitted while the previous one
// has not resolved yet.
var ErrTurnInFlight = errors.New("a turn is already awaiting its reply")

// TurnResult is everything one resolved turn produced for the UI boundary.
type TurnResult struct {
	Reply    string
	Status   Status
	Reason   error // parser rejection reason when Status is StatusOrderInvalid
	Order    *order.Order
	Check    order.TotalCheck
	Receipt  *order.Receipt
	SavedAs  string // persisted record name, empty when persistence failed
	Warnings []string
}

// Conversation drives one ordering dialogue: it owns the transcript, the turn
// state machine and the last validated order, and routes each model reply
// through the scanner, parser, pricing check, renderer and store.
type Conversation struct {
	completer chat.Completer
	scanner   *order.Scanner
	store     *store.Store
	now       func() time.Time
	log       *logrus.Entry

	// OnOrder, if set, is invoked after each successfully persisted order.
	OnOrder func(rec store.Record, o *order.Order)

	mu         sync.Mutex
	state      State
	transcript []chat.Turn
	lastOrder  *order.Order
}

// NewConversation starts a conversation seeded with the persona prompt. The
// system turn is fixed: it is never mutated or removed.
func NewConversation(completer chat.Completer, st *store.Store, systemPrompt string) *Conversation {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Conversation{
		completer:  completer,
		scanner:    order.NewDefaultScanner(),
		store:      st,
		now:        time.Now,
		log:        logrus.WithField("component", "conversation"),
		transcript: []chat.Turn{{Role: chat.RoleSystem, Content: systemPrompt}},
	}
}

// Submit runs one user turn to completion: append the turn, call the model,
// and classify the reply. It blocks until the reply resolves; a concurrent
// Submit fails with ErrTurnInFlight.
func (c *Conversation) Submit(ctx context.Context, userText string) (*TurnResult, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, errors.New("empty user turn")
	}

	c.mu.Lock()
	if c.state == StateAwaitingReply {
		c.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	c.state = StateAwaitingReply
	c.transcript = append(c.transcript, chat.Turn{Role: chat.RoleUser, Content: userText})
	transcript := append([]chat.Turn(nil), c.transcript...)
	c.mu.Unlock()

	reply, err := c.completer.Complete(ctx, transcript)
	if err != nil {
		// The failure becomes a visible turn; the session stays usable and
		// the user may simply resubmit.
		c.log.Warnf("⚠️ Model call failed: %v", err)
		reply = fmt.Sprintf("⚠️ Error al contactar con el asistente:\n\n%v", err)
		c.appendReply(reply, StateIdle, nil)
		return &TurnResult{Reply: reply, Status: StatusModelFailed}, nil
	}

	payload, terminal := c.scanner.Scan(reply)
	if !terminal || payload == "" {
		// Ordinary conversation; any previously shown order is cleared.
		c.appendReply(reply, StateIdle, nil)
		return &TurnResult{Reply: reply, Status: StatusReply}, nil
	}

	o, err := order.ParseOrder(payload)
	if err != nil {
		c.log.Warnf("🧾 Rejected order payload: %v", err)
		c.appendReply(reply, StateIdle, nil)
		return &TurnResult{Reply: reply, Status: StatusOrderInvalid, Reason: err}, nil
	}

	result := &TurnResult{Reply: reply, Status: StatusOrderPlaced, Order: o}

	result.Check = order.CheckTotal(o)
	if result.Check.Discrepancy {
		warning := fmt.Sprintf("el total declarado %.2f € no coincide con el calculado %.2f €",
			result.Check.Declared, result.Check.Computed)
		c.log.Warnf("💰 Total discrepancy: %s", warning)
		result.Warnings = append(result.Warnings, warning)
	}

	receipt := order.RenderReceipt(o, c.now())
	result.Receipt = &receipt

	rec, err := c.store.Save(o)
	if err != nil {
		c.log.Errorf("❌ Failed to persist order: %v", err)
		result.Warnings = append(result.Warnings, "pedido registrado en la sesión pero no guardado")
	} else {
		result.SavedAs = rec.Name
		c.log.Infof("🧾 Order persisted as %s (total %.2f €)", rec.Name, o.DeclaredTotal)
		if c.OnOrder != nil {
			c.OnOrder(rec, o)
		}
	}

	c.appendReply(reply, StateTerminal, o)
	return result, nil
}

// appendReply records the assistant turn verbatim and settles the state
// machine. The raw reply is kept even when its payload was rejected.
func (c *Conversation) appendReply(reply string, next State, o *order.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, chat.Turn{Role: chat.RoleAssistant, Content: reply})
	c.state = next
	c.lastOrder = o
}

// State returns the current turn state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastOrder returns the order validated by the most recent terminal turn, or
// nil if the last turn was ordinary conversation.
func (c *Conversation) LastOrder() *order.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOrder
}

// Transcript returns a copy of the full turn sequence, system turn included.
func (c *Conversation) Transcript() []chat.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Turn(nil), c.transcript...)
}

// RenderTranscript formats the dialogue for display, excluding the system turn.
func (c *Conversation) RenderTranscript() string {
	var b strings.Builder
	for _, turn := range c.Transcript() {
		switch turn.Role {
		case chat.RoleUser:
			b.WriteString("**🧑 Tú:** " + turn.Content + "\n\n")
		case chat.RoleAssistant:
			b.WriteString("**🤖 Don Quijote:** " + turn.Content + "\n\n")
		}
	}
	return b.String()
}
