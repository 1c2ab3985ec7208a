package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quixote-kitchen/comanda/chat"
	"github.com/quixote-kitchen/comanda/order"
	"github.com/quixote-kitchen/comanda/store"
)

const (
	timeoutEventually = 2 * time.Second
	tickEventually    = 10 * time.Millisecond
)

// fakeCompleter returns scripted replies and records every transcript it was
// handed.
type fakeCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]chat.Turn
	block   chan struct{} // when set, Complete waits until closed
}

func (f *fakeCompleter) Complete(ctx context.Context, transcript []chat.Turn) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, transcript)
	var reply string
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	block := f.block
	err := f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return reply, err
}

func newTestConversation(t *testing.T, completer chat.Completer) (*Conversation, *store.Store) {
	t.Helper()
	st, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewConversation(completer, st, DefaultSystemPrompt), st
}

const terminalPickupReply = "¡Excelente elección, noble dama! He aquí vuestro manuscrito:\n" +
	"```json\n" +
	`{"viandas": ["La Sanchopanza", "Agua"], "precios_viandas": [12, 2], "modo_entrega": "recogida", "total": 14}` +
	"\n```\n[MOSTRAR_FACTURA]"

func TestSubmitOrdinaryConversation(t *testing.T) {
	fake := &fakeCompleter{replies: []string{"¡Bienvenido al Don Quijote! ¿Qué deseáis?"}}
	conv, st := newTestConversation(t, fake)

	result, err := conv.Submit(context.Background(), "hola")
	require.NoError(t, err)

	assert.Equal(t, StatusReply, result.Status)
	assert.Nil(t, result.Order)
	assert.Nil(t, result.Receipt)
	assert.Equal(t, StateIdle, conv.State())
	assert.Nil(t, conv.LastOrder())

	count, err := st.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSubmitEndToEndPickupOrder(t *testing.T) {
	fake := &fakeCompleter{replies: []string{
		"¡Una Sanchopanza y un agua, qué nobleza! ¿Deseáis alguna bebida más? Son 14 euros en total, ¿confirmáis?",
		terminalPickupReply,
	}}
	conv, st := newTestConversation(t, fake)
	ctx := context.Background()

	first, err := conv.Submit(ctx, "quiero una Sanchopanza y un agua, para recoger")
	require.NoError(t, err)
	assert.Equal(t, StatusReply, first.Status)

	second, err := conv.Submit(ctx, "confirmo")
	require.NoError(t, err)

	assert.Equal(t, StatusOrderPlaced, second.Status)
	require.NotNil(t, second.Order)
	require.Len(t, second.Order.Items, 2)
	assert.Equal(t, 14.0, second.Order.ComputedTotal())
	assert.Empty(t, second.Order.Address)
	assert.False(t, second.Check.Discrepancy)
	assert.Empty(t, second.Warnings)

	require.NotNil(t, second.Receipt)
	assert.Contains(t, second.Receipt.Text, "La Sanchopanza")
	assert.Contains(t, second.Receipt.Text, "Agua")
	assert.Contains(t, second.Receipt.Text, "14.00 €")

	assert.Equal(t, "factura_0001.json", second.SavedAs)
	persisted, err := st.Load(second.SavedAs)
	require.NoError(t, err)
	assert.Equal(t, second.Order, persisted)

	assert.Equal(t, StateTerminal, conv.State())
	assert.Equal(t, second.Order, conv.LastOrder())
}

func TestSubmitResendsFullTranscriptEveryCall(t *testing.T) {
	fake := &fakeCompleter{replies: []string{"hola", "adiós"}}
	conv, _ := newTestConversation(t, fake)
	ctx := context.Background()

	_, err := conv.Submit(ctx, "primer turno")
	require.NoError(t, err)
	_, err = conv.Submit(ctx, "segundo turno")
	require.NoError(t, err)

	require.Len(t, fake.calls, 2)
	// system + user
	assert.Len(t, fake.calls[0], 2)
	assert.Equal(t, chat.RoleSystem, fake.calls[0][0].Role)
	// system + user + assistant + user
	assert.Len(t, fake.calls[1], 4)
	assert.Equal(t, "primer turno", fake.calls[1][1].Content)
	assert.Equal(t, "hola", fake.calls[1][2].Content)
}

func TestSubmitTotalDiscrepancyWarnsButPersists(t *testing.T) {
	reply := "He aquí el pedido:\n```json\n" +
		`{"viandas": ["La Sanchopanza", "Agua"], "precios_viandas": [12, 2], "modo_entrega": "recogida", "total": 99}` +
		"\n```\n[MOSTRAR_FACTURA]"
	fake := &fakeCompleter{replies: []string{reply}}
	conv, st := newTestConversation(t, fake)

	result, err := conv.Submit(context.Background(), "confirmo")
	require.NoError(t, err)

	assert.Equal(t, StatusOrderPlaced, result.Status)
	assert.True(t, result.Check.Discrepancy)
	assert.Equal(t, 14.0, result.Check.Computed)
	require.NotEmpty(t, result.Warnings)

	// Declared total is what gets displayed and stored
	assert.Contains(t, result.Receipt.Text, "99.00 €")
	persisted, err := st.Load(result.SavedAs)
	require.NoError(t, err)
	assert.Equal(t, 99.0, persisted.DeclaredTotal)
}

func TestSubmitPersistFailureStillShowsReceipt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "facturas")
	st, err := store.NewStore(dir)
	require.NoError(t, err)
	fake := &fakeCompleter{replies: []string{terminalPickupReply}}
	conv := NewConversation(fake, st, DefaultSystemPrompt)

	// Replace the invoice directory with a regular file so Save fails.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o644))

	result, err := conv.Submit(context.Background(), "confirmo")
	require.NoError(t, err)

	assert.Equal(t, StatusOrderPlaced, result.Status)
	require.NotNil(t, result.Receipt)
	assert.Contains(t, result.Receipt.Text, "La Sanchopanza")
	assert.Empty(t, result.SavedAs)
	assert.Contains(t, result.Warnings, "pedido registrado en la sesión pero no guardado")
	assert.Equal(t, StateTerminal, conv.State())
}

func TestSubmitRejectedPayloadKeepsSessionUsable(t *testing.T) {
	bad := "Vuestro pedido: {\"viandas\": [\"Agua\"], \"total\": 2} [MOSTRAR_FACTURA]"
	fake := &fakeCompleter{replies: []string{bad, "seguimos charlando"}}
	conv, st := newTestConversation(t, fake)
	ctx := context.Background()

	result, err := conv.Submit(ctx, "confirmo")
	require.NoError(t, err)

	assert.Equal(t, StatusOrderInvalid, result.Status)
	var incomplete *order.IncompleteOrderError
	require.ErrorAs(t, result.Reason, &incomplete)
	assert.Nil(t, result.Receipt)
	assert.Nil(t, conv.LastOrder())
	assert.Equal(t, StateIdle, conv.State())

	// Nothing persisted, raw reply still on the transcript
	count, err := st.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
	transcript := conv.Transcript()
	assert.Equal(t, bad, transcript[len(transcript)-1].Content)

	// The session accepts the next turn as usual
	next, err := conv.Submit(ctx, "vale, lo repito")
	require.NoError(t, err)
	assert.Equal(t, StatusReply, next.Status)
}

func TestSubmitDeliveryOrderWithoutAddressNeverPersists(t *testing.T) {
	reply := "```json\n" +
		`{"viandas": ["Agua"], "precios_viandas": [2], "modo_entrega": "domicilio", "total": 5}` +
		"\n```\n[MOSTRAR_FACTURA]"
	fake := &fakeCompleter{replies: []string{reply}}
	conv, st := newTestConversation(t, fake)

	result, err := conv.Submit(context.Background(), "confirmo")
	require.NoError(t, err)

	assert.Equal(t, StatusOrderInvalid, result.Status)
	assert.ErrorIs(t, result.Reason, order.ErrMissingDeliveryAddress)
	assert.Nil(t, result.Receipt)
	count, err := st.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSubmitModelFailureBecomesVisibleTurn(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("rate limited")}
	conv, st := newTestConversation(t, fake)
	ctx := context.Background()

	result, err := conv.Submit(ctx, "hola")
	require.NoError(t, err)

	assert.Equal(t, StatusModelFailed, result.Status)
	assert.Contains(t, result.Reply, "rate limited")
	assert.Equal(t, StateIdle, conv.State())

	// The failure is recorded as an assistant turn
	transcript := conv.Transcript()
	assert.Equal(t, chat.RoleAssistant, transcript[len(transcript)-1].Role)
	assert.Contains(t, transcript[len(transcript)-1].Content, "rate limited")

	// Resubmission is a user action; the session accepts it
	fake.mu.Lock()
	fake.err = nil
	fake.replies = []string{"ya estoy de vuelta"}
	fake.mu.Unlock()
	next, err := conv.Submit(ctx, "hola otra vez")
	require.NoError(t, err)
	assert.Equal(t, StatusReply, next.Status)

	count, err := st.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSubmitRejectsConcurrentTurn(t *testing.T) {
	block := make(chan struct{})
	fake := &fakeCompleter{replies: []string{"lenta respuesta"}, block: block}
	conv, _ := newTestConversation(t, fake)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := conv.Submit(ctx, "primero")
		assert.NoError(t, err)
	}()

	// Wait until the first turn is in flight
	require.Eventually(t, func() bool {
		return conv.State() == StateAwaitingReply
	}, timeoutEventually, tickEventually)

	_, err := conv.Submit(ctx, "segundo")
	assert.ErrorIs(t, err, ErrTurnInFlight)

	close(block)
	<-done
	assert.Equal(t, StateIdle, conv.State())
}

func TestSubmitEmptyTurnRejected(t *testing.T) {
	conv, _ := newTestConversation(t, &fakeCompleter{})
	_, err := conv.Submit(context.Background(), "   ")
	assert.Error(t, err)
}

func TestRenderTranscriptSkipsSystemTurn(t *testing.T) {
	fake := &fakeCompleter{replies: []string{"¡Salud, noble visitante!"}}
	conv, _ := newTestConversation(t, fake)

	_, err := conv.Submit(context.Background(), "hola")
	require.NoError(t, err)

	rendered := conv.RenderTranscript()
	assert.Contains(t, rendered, "🧑 Tú:** hola")
	assert.Contains(t, rendered, "🤖 Don Quijote:** ¡Salud, noble visitante!")
	assert.NotContains(t, rendered, "caballero andante convertido en teleoperador")
}
