package session

import (
	"context"
	"errors"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/wbcoef/wbcoef/core/logger"
	tghelpers "github.com/wbcoef/wbcoef/core/telegram/helpers"
	"github.com/wbcoef/wbcoef/internal/domain"
)

type handlerFunc func(ctx context.Context, c tele.Context) error

// answered marks an error the handler already explained to the user.
type answered struct{ err error }

func (a answered) Error() string { return a.err.Error() }
func (a answered) Unwrap() error { return a.err }

// wrap logs a failed handler and answers with the generic apology, or the
// permission message. The error still reaches the router for its summary.
func (e *Engine) wrap(name string, h handlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		err := h(ctx, c)
		if err == nil {
			return nil
		}

		logger.Session.LogAttrs(ctx, slog.LevelError, "handler failed",
			slog.String("event", "session."+name),
			slog.String("err", logger.SanitizeLimit(err.Error(), 512)),
		)

		var done answered
		if errors.As(err, &done) {
			return done.err
		}
		reply := textApology
		if errors.Is(err, domain.ErrPermissionDenied) {
			reply = textDenied
		}
		if sendErr := tghelpers.Send(c, reply); sendErr != nil {
			logger.Session.LogAttrs(ctx, slog.LevelWarn, "apology not sent",
				slog.String("event", "session."+name),
				slog.String("err", logger.SanitizeLimit(sendErr.Error(), 256)),
			)
		}
		return err
	}
}

// callbackMessage fails when a callback no longer carries its message.
func callbackMessage(c tele.Context, op string) (*tele.Message, error) {
	if m := c.Message(); m != nil {
		return m, nil
	}
	return nil, domain.E(domain.KindMissingMessage, op, nil)
}

func userID(c tele.Context) int64 {
	id, _ := tghelpers.IDs(c)
	return id
}
