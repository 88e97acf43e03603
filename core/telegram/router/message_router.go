package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/wbcoef/wbcoef/core/telegram"
)

// FSM resolves free text to the handler of the sender's dialogue state.
// A nil handler means the state does not consume text.
type FSM interface {
	HandlerFor(c tele.Context) (string, tele.HandlerFunc, error)
}

// TextOptions controls command guarding and fallback behaviour for text.
type TextOptions struct {
	Commands CommandOptions
	// OnStateError answers the user when the dialogue state cannot be read.
	OnStateError func(c tele.Context, err error) error
	// UnknownText runs when neither a command nor the FSM takes the text.
	// When nil such text is dropped silently.
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the text handler. Commands take precedence over the
// dialogue state, so /start always works even while a token is awaited.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	cmds := newCommandRouter(reg, opts.Commands)

	handler := func(c tele.Context) error {
		start := time.Now()

		if name, h, ok := cmds.match(c.Text()); ok {
			return handleWithSummary(c, name, start, func() error { return h(c) })
		}

		if fsm != nil {
			name, h, err := fsm.HandlerFor(c)
			if err != nil {
				return handleWithSummary(c, "fsm", start, func() error {
					if opts.OnStateError != nil {
						_ = opts.OnStateError(c, err)
					}
					return err
				})
			}
			if h != nil {
				return handleWithSummary(c, name, start, func() error { return h(c) })
			}
		}

		fb := opts.UnknownText
		if fb == nil && reg != nil {
			fb = reg.TextFallback()
		}
		if fb != nil {
			return handleWithSummary(c, "unknown_text", start, func() error { return fb(c) })
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}
