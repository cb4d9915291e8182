package tgbot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/EgoisTa-Git/fish-shop/core/telegram"
	"github.com/EgoisTa-Git/fish-shop/internal/conversation"
	"github.com/EgoisTa-Git/fish-shop/internal/storefront"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	upd       tele.Update
	store     map[string]any
	sent      []any
	responses []*tele.CallbackResponse
}

func newTextContext(text string) *fakeContext {
	return &fakeContext{
		upd: tele.Update{ID: 1, Message: &tele.Message{
			Text:   text,
			Chat:   &tele.Chat{ID: 77},
			Sender: &tele.User{ID: 5, Username: "angler"},
		}},
		store: map[string]any{},
	}
}

func newCallbackContext(data string) *fakeContext {
	return &fakeContext{
		upd: tele.Update{ID: 2, Callback: &tele.Callback{
			Data:    data,
			Sender:  &tele.User{ID: 5, FirstName: "Ann", LastName: "Gler"},
			Message: &tele.Message{ID: 9, Chat: &tele.Chat{ID: 77}},
		}},
		store: map[string]any{},
	}
}

func (c *fakeContext) Update() tele.Update      { return c.upd }
func (c *fakeContext) Callback() *tele.Callback { return c.upd.Callback }
func (c *fakeContext) Get(key string) any       { return c.store[key] }
func (c *fakeContext) Set(key string, v any)    { c.store[key] = v }

func (c *fakeContext) Text() string {
	if c.upd.Message != nil {
		return c.upd.Message.Text
	}
	return ""
}

func (c *fakeContext) Chat() *tele.Chat {
	if c.upd.Callback != nil {
		return c.upd.Callback.Message.Chat
	}
	return c.upd.Message.Chat
}

func (c *fakeContext) Sender() *tele.User {
	if c.upd.Callback != nil {
		return c.upd.Callback.Sender
	}
	return c.upd.Message.Sender
}

func (c *fakeContext) Send(what any, _ ...any) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		c.responses = append(c.responses, nil)
		return nil
	}
	c.responses = append(c.responses, resp[0])
	return nil
}

type fakeDialog struct {
	got []storefront.Inbound
	err error
}

func (d *fakeDialog) Handle(_ context.Context, in storefront.Inbound, _ storefront.Messenger) error {
	d.got = append(d.got, in)
	return d.err
}

func TestCallbackRoundTrip(t *testing.T) {
	events := []conversation.Event{
		conversation.ShowCart(),
		conversation.BackToMenu(),
		conversation.Checkout(),
		conversation.SelectProduct("8a2f-11"),
		conversation.SelectQuantity(10),
		conversation.RemoveItem("line-3"),
	}
	for _, ev := range events {
		btn := encodeButton(storefront.Button{Label: "x", Event: ev})
		got, ok := decodeCallback(btn.Key, btn.Payload)
		require.True(t, ok, ev.Kind.String())
		assert.Equal(t, ev, got)
	}

	for _, bad := range [][2]string{{"qty", "ten"}, {"product", ""}, {"nope", "1"}} {
		_, ok := decodeCallback(bad[0], bad[1])
		assert.False(t, ok, bad)
	}
}

func TestDispatchTextUsesDisplayName(t *testing.T) {
	d := &fakeDialog{}
	h := New(d)
	c := newTextContext("fish@example.com")

	require.NoError(t, h.dispatch(c, conversation.Text(c.Text())))
	require.Len(t, d.got, 1)
	assert.Equal(t, int64(77), d.got[0].ChatID)
	assert.Equal(t, "@angler", d.got[0].SenderName)
	assert.Equal(t, conversation.Text("fish@example.com"), d.got[0].Event)
	assert.Empty(t, c.sent)
}

func TestCallbackIsAnsweredOnce(t *testing.T) {
	d := &fakeDialog{}
	c := newCallbackContext("\fproduct|p-1")

	require.NoError(t, New(d).onCallback(c))
	require.Len(t, d.got, 1)
	assert.Equal(t, conversation.SelectProduct("p-1"), d.got[0].Event)
	assert.Equal(t, "Ann Gler", d.got[0].SenderName)
	assert.Len(t, c.responses, 1)
}

func TestRejectedCallbackGetsToast(t *testing.T) {
	d := &fakeDialog{err: storefront.ErrRejected}
	c := newCallbackContext("\fcheckout")

	require.NoError(t, New(d).onCallback(c))
	require.Len(t, c.responses, 1)
	assert.Equal(t, storefront.TextUnsupported, c.responses[0].Text)
	assert.Empty(t, c.sent)
}

func TestRejectedTextIsIgnored(t *testing.T) {
	d := &fakeDialog{err: storefront.ErrRejected}
	c := newTextContext("hello")

	require.NoError(t, New(d).dispatch(c, conversation.Text("hello")))
	assert.Empty(t, c.sent)
	assert.Empty(t, c.responses)
}

func TestBackendFailureSendsGenericMessage(t *testing.T) {
	boom := errors.New("upstream 502")
	d := &fakeDialog{err: boom}
	c := newCallbackContext("\fshow_cart")

	err := New(d).onCallback(c)
	require.ErrorIs(t, err, boom)
	require.Len(t, c.sent, 1)
	assert.Equal(t, storefront.TextFailure, c.sent[0])
	assert.Len(t, c.responses, 1)
}

func TestUnknownCallbackKey(t *testing.T) {
	d := &fakeDialog{}
	c := newCallbackContext("\fqty|many")

	require.NoError(t, New(d).onCallback(c))
	assert.Empty(t, d.got)
	require.Len(t, c.responses, 1)
	assert.Equal(t, storefront.TextUnsupported, c.responses[0].Text)
}

func TestRegister(t *testing.T) {
	reg := tg.NewRegistry()
	require.NoError(t, New(&fakeDialog{}).Register(reg))

	for _, name := range []string{"/start", "/cancel"} {
		_, _, ok := reg.LookupCommand(name)
		assert.True(t, ok, name)
	}
	assert.ElementsMatch(t, callbackKeys, reg.ListCallbacks())
	assert.NotNil(t, reg.TextFallback())
}
