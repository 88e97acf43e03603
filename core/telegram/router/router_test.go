package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/wbcoef/wbcoef/core/telegram"
	"github.com/wbcoef/wbcoef/core/telegram/commands"
)

type fakeContext struct {
	tele.Context
	update    tele.Update
	store     map[string]any
	responded int
}

func textCtx(username, text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 1, Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: 7, Username: username},
			Chat:   &tele.Chat{ID: 7},
		}},
		store: map[string]any{},
	}
}

func callbackCtx(data string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 2, Callback: &tele.Callback{
			Data:   data,
			Sender: &tele.User{ID: 7},
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update         { return f.update }
func (f *fakeContext) Callback() *tele.Callback    { return f.update.Callback }
func (f *fakeContext) Get(k string) interface{}    { return f.store[k] }
func (f *fakeContext) Set(k string, v interface{}) { f.store[k] = v }
func (f *fakeContext) Chat() *tele.Chat {
	if f.update.Message != nil {
		return f.update.Message.Chat
	}
	return nil
}
func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}
func (f *fakeContext) Sender() *tele.User {
	if f.update.Callback != nil {
		return f.update.Callback.Sender
	}
	return f.update.Message.Sender
}
func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded++
	return nil
}

type fakeFSM struct {
	handler tele.HandlerFunc
	err     error
}

func (f fakeFSM) HandlerFor(tele.Context) (string, tele.HandlerFunc, error) {
	return "fsm.test", f.handler, f.err
}

func TestCallbackRouteAcknowledgesAndDispatches(t *testing.T) {
	reg := tg.NewRegistry()
	var got []string
	require.NoError(t, reg.RegisterCallback("main_menu", func(tele.Context) error { got = append(got, "menu"); return nil }))
	require.NoError(t, reg.RegisterCallbackPrefix("w_page:", func(c tele.Context) error {
		got = append(got, c.Callback().Data)
		return nil
	}))
	reg.SetCallbackNotFound(func(c tele.Context) error { got = append(got, "unknown:"+c.Callback().Data); return nil })

	route := CallbackRoute(reg, CallbackOptions{})
	assert.Equal(t, tele.OnCallback, route.Endpoint)

	for _, data := range []string{"main_menu", "w_page:2", "bogus"} {
		c := callbackCtx(data)
		require.NoError(t, route.Handler(c))
		assert.Equal(t, 1, c.responded, data)
	}
	assert.Equal(t, []string{"menu", "w_page:2", "unknown:bogus"}, got)
}

func TestTextRoutesPrefersCommandsOverState(t *testing.T) {
	reg := tg.NewRegistry()
	reg.SetBotUsername("wb_bot")
	started := 0
	reg.RegisterCommand("/start", commands.Command{Handler: func(tele.Context) error { started++; return nil }, Description: "start"})

	fsmCalls := 0
	fsm := fakeFSM{handler: func(tele.Context) error { fsmCalls++; return nil }}
	h := TextRoutes(fsm, reg, TextOptions{})[0].Handler

	require.NoError(t, h(textCtx("u", "/START@wb_bot")))
	require.NoError(t, h(textCtx("u", "eyJ.token.sig")))
	require.NoError(t, h(textCtx("u", "/start@someone_else")))
	assert.Equal(t, 1, started)
	assert.Equal(t, 2, fsmCalls)
}

func TestTextRoutesGuardsAdminCommands(t *testing.T) {
	reg := tg.NewRegistry()
	var args []string
	reg.RegisterCommand("/msg_to_all", commands.Command{
		Handler:     func(c tele.Context) error { args = append(args, c.Text()); return nil },
		Description: "broadcast",
		AdminOnly:   true,
	})
	rejected := 0
	h := TextRoutes(nil, reg, TextOptions{Commands: CommandOptions{
		AdminUsername: "boss",
		OnAdminReject: func(tele.Context) error { rejected++; return nil },
	}})[0].Handler

	require.NoError(t, h(textCtx("boss", "/msg_to_all hi")))
	require.NoError(t, h(textCtx("mallory", "/msg_to_all hi")))
	assert.Equal(t, []string{"/msg_to_all hi"}, args)
	assert.Equal(t, 1, rejected)
}

func TestTextRoutesStateErrorAndSilentIdle(t *testing.T) {
	reg := tg.NewRegistry()
	var reported error
	h := TextRoutes(fakeFSM{err: errors.New("db locked")}, reg, TextOptions{
		OnStateError: func(_ tele.Context, err error) error { reported = err; return nil },
	})[0].Handler
	require.Error(t, h(textCtx("u", "hello")))
	require.Error(t, reported)

	h = TextRoutes(fakeFSM{}, reg, TextOptions{})[0].Handler
	assert.NoError(t, h(textCtx("u", "hello")))
}

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "", deriveErrorCode(nil))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
	assert.Equal(t, "NOT_FOUND", deriveErrorCode(codedErr{}))
	assert.Equal(t, "another_box_type_callback", normalizeHandlerName("another_box_type_callback:"))
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "not found" }
