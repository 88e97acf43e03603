package middleware

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave. The admin is
// identified by Telegram username, compared without the leading "@".
type AdminOptions struct {
	AdminUsername string
	OnReject      tele.HandlerFunc
}

// IsAdmin reports whether the sender of c is the configured admin.
func (o AdminOptions) IsAdmin(c tele.Context) bool {
	want := strings.TrimPrefix(strings.TrimSpace(o.AdminUsername), "@")
	u := c.Sender()
	return want != "" && u != nil && u.Username != "" && strings.EqualFold(u.Username, want)
}

// AdminOnlyMiddleware lets only the admin reach downstream handlers.
// Everyone else gets OnReject, or silence.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !opts.IsAdmin(c) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
