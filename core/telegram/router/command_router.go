package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/wbcoef/wbcoef/core/logger"
	tg "github.com/wbcoef/wbcoef/core/telegram"
	"github.com/wbcoef/wbcoef/core/telegram/commands"
	"github.com/wbcoef/wbcoef/core/telegram/middleware"
)

// CommandOptions configures how registered commands are guarded.
type CommandOptions struct {
	AdminUsername string
	OnAdminReject tele.HandlerFunc
}

type commandRouter struct {
	reg   *tg.Registry
	admin middleware.AdminOptions
}

func newCommandRouter(reg *tg.Registry, opts CommandOptions) *commandRouter {
	return &commandRouter{
		reg: reg,
		admin: middleware.AdminOptions{
			AdminUsername: opts.AdminUsername,
			OnReject:      opts.OnAdminReject,
		},
	}
}

// match resolves text to a guarded command handler and its log name.
// Commands addressed to another bot or unknown to the registry do not match.
func (r *commandRouter) match(text string) (string, tele.HandlerFunc, bool) {
	if r == nil || r.reg == nil {
		return "", nil, false
	}
	name, _, ok := commands.Parse(text, r.reg.BotUsername())
	if !ok {
		return "", nil, false
	}
	key, cmd, ok := r.reg.LookupCommand(name)
	if !ok || cmd.Handler == nil {
		return "", nil, false
	}
	return "command." + normalizeHandlerName(key), r.guard(cmd), true
}

func (r *commandRouter) guard(cmd commands.Command) tele.HandlerFunc {
	if !cmd.AdminOnly {
		return cmd.Handler
	}
	return middleware.AdminOnlyMiddleware(r.admin)(cmd.Handler)
}

// LogWiring writes one summary line describing what the registry routes.
func LogWiring(reg *tg.Registry) {
	if reg == nil {
		return
	}
	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
}
