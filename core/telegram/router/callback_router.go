package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/wbcoef/wbcoef/core/telegram"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound runs when the registry has no handler and no fallback of its own.
	NotFound tele.HandlerFunc
}

// CallbackRoute acknowledges every callback query first, then dispatches
// its raw payload through the registry's exact and prefix tables.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		_ = c.Respond()

		key, h, ok := reg.LookupCallback(cb.Data)
		if !ok || h == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			if fallback == nil {
				logHandlerSummary(c, "callback.unknown", start, "skip", nil)
				return nil
			}
			return handleWithSummary(c, "callback.unknown", start, func() error {
				return fallback(c)
			}, slog.String("reason", "not_found"))
		}

		return handleWithSummary(c, "callback."+normalizeHandlerName(key), start, func() error {
			return h(c)
		})
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
