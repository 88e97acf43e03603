package session

import (
	"context"
	"errors"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/wbcoef/wbcoef/core/logger"
	tghelpers "github.com/wbcoef/wbcoef/core/telegram/helpers"
	"github.com/wbcoef/wbcoef/core/telegram/sender"
	"github.com/wbcoef/wbcoef/internal/metrics"
)

var errNoSender = errors.New("session: broadcast sender not attached")

// onBroadcast sends the command text to every other user. One failed
// delivery never stops the rest. The router admits only the admin here.
func (e *Engine) onBroadcast(ctx context.Context, c tele.Context) error {
	text := commandArgs(c)
	if text == "" {
		return tghelpers.Send(c, textBroadcastUsage)
	}
	if e.sender == nil {
		return errNoSender
	}
	ids, err := e.store.UserIDs(ctx)
	if err != nil {
		return err
	}

	self := userID(c)
	runs := make([]func() error, 0, len(ids))
	for _, id := range ids {
		if id == self {
			continue
		}
		to := tele.ChatID(id)
		runs = append(runs, func() error {
			_, err := e.sender.Send(to, text)
			return err
		})
	}

	res := fanout(ctx, tghelpers.CurrentDispatcher(), runs)
	metrics.BroadcastMessages.WithLabelValues(metrics.StatusOK).Add(float64(res.Sent))
	metrics.BroadcastMessages.WithLabelValues(metrics.StatusError).Add(float64(res.Failed))
	logger.Session.LogAttrs(ctx, slog.LevelInfo, "broadcast done",
		slog.String("event", "session.broadcast"),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
	)
	return tghelpers.Send(c, textBroadcastDone)
}

func fanout(ctx context.Context, d *sender.Dispatcher, runs []func() error) sender.FanoutResult {
	if d != nil {
		return d.Fanout(ctx, "broadcast", "sendMessage", runs)
	}
	var res sender.FanoutResult
	for _, run := range runs {
		if run() != nil {
			res.Failed++
			continue
		}
		res.Sent++
	}
	return res
}
