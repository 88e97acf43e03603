package session

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/wbcoef/wbcoef/core/telegram/helpers"
	"github.com/wbcoef/wbcoef/internal/domain"
	"github.com/wbcoef/wbcoef/internal/token"
)

// onTokenText handles text while a token is awaited. A token the
// marketplace accepts is stored and the catalog opens; otherwise the user
// is asked for another one and the state stays.
func (e *Engine) onTokenText(ctx context.Context, c tele.Context) error {
	raw := strings.TrimSpace(c.Text())
	ok, err := e.api.Ping(ctx, raw)
	if err != nil {
		return err
	}
	if !ok {
		// Token.Expired is true for a token that has not expired yet.
		notExpired, err := token.IsExpired(raw, e.opts.Now())
		if err == nil && notExpired {
			return tghelpers.Send(c, textTokenExpired)
		}
		return tghelpers.Send(c, textTokenInvalid)
	}

	uid := userID(c)
	if err := e.store.SetState(ctx, uid, domain.StateIdle); err != nil {
		return err
	}
	if err := e.store.SetToken(ctx, uid, raw); err != nil {
		return err
	}
	if err := e.catalog.RefreshWarehouses(ctx, raw); err != nil {
		return err
	}
	kb, err := e.warehouseKeyboard(ctx, 0)
	if err != nil {
		return err
	}
	return tghelpers.Send(c, textChooseWarehouse, kb)
}
