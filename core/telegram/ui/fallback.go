// Package ui holds the contracts between the routing layer and the bot's
// user-facing replies.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers used when an update cannot be mapped
// to a command, a callback, or a dialogue state. A nil handler means the
// update is dropped without a reply.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
