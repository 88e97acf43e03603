package session

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/wbcoef/wbcoef/core/logger"
	"github.com/wbcoef/wbcoef/core/telegram/commands"
	tghelpers "github.com/wbcoef/wbcoef/core/telegram/helpers"
	"github.com/wbcoef/wbcoef/internal/domain"
	"github.com/wbcoef/wbcoef/internal/keyboards"
)

func (e *Engine) onHelp(_ context.Context, c tele.Context) error {
	return tghelpers.Send(c, textHelp)
}

func (e *Engine) onStart(ctx context.Context, c tele.Context) error {
	uid := userID(c)
	if err := e.store.AddUser(ctx, uid, tghelpers.Username(c, domain.NoUsername)); err != nil {
		return err
	}
	if err := e.store.SetState(ctx, uid, domain.StateIdle); err != nil {
		return err
	}
	return tghelpers.SendHTML(c, textWelcome, keyboards.MainMenu())
}

// NotifyStart tells the admin the bot is up. Failures are only logged.
func (e *Engine) NotifyStart(ctx context.Context) {
	if e.sender == nil || e.opts.AdminUsername == "" {
		return
	}
	id, ok, err := e.store.UserIDByUsername(ctx, e.opts.AdminUsername)
	switch {
	case err != nil:
		logger.Session.LogAttrs(ctx, slog.LevelWarn, "start notice skipped",
			slog.String("event", "session.notify_start"),
			slog.String("err", err.Error()),
		)
		return
	case !ok:
		logger.Session.LogAttrs(ctx, slog.LevelWarn, "start notice skipped",
			slog.String("event", "session.notify_start"),
			slog.String("reason", "admin_not_registered"),
		)
		return
	}
	if _, err := e.sender.Send(tele.ChatID(id), textBotStarted); err != nil {
		logger.Session.LogAttrs(ctx, slog.LevelWarn, "start notice failed",
			slog.String("event", "session.notify_start"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

func commandArgs(c tele.Context) string {
	_, args, _ := commands.Parse(c.Text(), "")
	return args
}
