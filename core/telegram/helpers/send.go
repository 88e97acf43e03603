package helpers

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/wbcoef/wbcoef/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the dispatcher whose retry policy the helpers use.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// CurrentDispatcher returns the dispatcher set by SetDispatcher, if any.
func CurrentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// Replies run synchronously so several replies to one update keep their order.
func do(c tele.Context, action, endpoint string, run func() error) error {
	disp := CurrentDispatcher()
	if disp == nil {
		return run()
	}
	return disp.Do(BuildContext(c), action, endpoint, run)
}

// Send sends plain text with optional reply markup to the current chat.
func Send(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: first(markup)}
	return do(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// SendHTML sends an HTML-formatted message with optional reply markup.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: first(markup)}
	return do(c, "send.html", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// EditText replaces the text of the message the callback came from.
func EditText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: first(markup)}
	return do(c, "edit.text", "editMessageText", func() error {
		return c.Edit(text, opts)
	})
}

// EditMarkup replaces only the inline keyboard of the callback message.
func EditMarkup(c tele.Context, markup *tele.ReplyMarkup) error {
	return do(c, "edit.markup", "editMessageReplyMarkup", func() error {
		return c.Edit(markup)
	})
}

// Delete removes the message the callback came from.
func Delete(c tele.Context) error {
	return do(c, "delete", "deleteMessage", c.Delete)
}

func first(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}
