package session

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/wbcoef/wbcoef/core/telegram/helpers"
	"github.com/wbcoef/wbcoef/internal/callbackdata"
	"github.com/wbcoef/wbcoef/internal/domain"
	"github.com/wbcoef/wbcoef/internal/keyboards"
	"github.com/wbcoef/wbcoef/internal/token"
)

var errBadPayload = errors.New("session: malformed callback payload")

func payload(c tele.Context) callbackdata.Payload {
	if cb := c.Callback(); cb != nil {
		return callbackdata.Parse(cb.Data)
	}
	return callbackdata.Payload{}
}

func (e *Engine) onMainMenu(ctx context.Context, c tele.Context) error {
	if _, err := callbackMessage(c, "session.main_menu"); err != nil {
		return err
	}
	if err := tghelpers.Send(c, textMainMenu, keyboards.MainMenu()); err != nil {
		return err
	}
	return e.store.ClearState(ctx, userID(c))
}

// onTokenLifetime reports the stored token's expiry. Any stored token
// qualifies; the state is not consulted.
func (e *Engine) onTokenLifetime(ctx context.Context, c tele.Context) error {
	if _, err := callbackMessage(c, "session.token_lifetime"); err != nil {
		return err
	}
	raw, err := e.store.GetToken(ctx, userID(c))
	if err != nil {
		return err
	}
	if raw == "" {
		return tghelpers.Send(c, textTokenNotSet)
	}
	until, err := token.Lifetime(raw)
	if err != nil {
		return err
	}
	if err := tghelpers.Delete(c); err != nil {
		return err
	}
	if err := tghelpers.Send(c, fmt.Sprintf(textTokenValidTill, until)); err != nil {
		return err
	}
	return tghelpers.Send(c, textMainMenu, keyboards.MainMenu())
}

// onWarehousesList opens the catalog. Token.Expired reads true while the
// token is still usable.
func (e *Engine) onWarehousesList(ctx context.Context, c tele.Context) error {
	if _, err := callbackMessage(c, "session.warehouses_list"); err != nil {
		return err
	}
	uid := userID(c)
	raw, err := e.store.GetToken(ctx, uid)
	if err != nil {
		return err
	}
	if raw == "" {
		if err := e.store.SetState(ctx, uid, domain.StateAwaitingToken); err != nil {
			return err
		}
		return tghelpers.SendHTML(c, textEnterToken, keyboards.ToMainMenu())
	}

	usable, err := token.IsExpired(raw, e.opts.Now())
	if err != nil {
		return err
	}
	if usable {
		if err := e.catalog.RefreshWarehouses(ctx, raw); err != nil {
			return err
		}
		kb, err := e.warehouseKeyboard(ctx, 0)
		if err != nil {
			return err
		}
		return tghelpers.EditText(c, textChooseWarehouse, kb)
	}

	until, err := token.Lifetime(raw)
	if err != nil {
		return err
	}
	if err := e.store.SetState(ctx, uid, domain.StateAwaitingToken); err != nil {
		return err
	}
	return tghelpers.SendHTML(c, fmt.Sprintf(textTokenExpiredAt, until), keyboards.ToMainMenu())
}

func (e *Engine) onAnotherWarehouse(ctx context.Context, c tele.Context) error {
	if _, err := callbackMessage(c, "session.another_warehouse"); err != nil {
		return err
	}
	kb, err := e.warehouseKeyboard(ctx, 0)
	if err != nil {
		return err
	}
	return tghelpers.Send(c, textAnotherWarehouse, kb)
}

func (e *Engine) onAnotherBoxType(ctx context.Context, c tele.Context) error {
	if _, err := callbackMessage(c, "session.another_box_type"); err != nil {
		return err
	}
	whid := payload(c).WarehouseID
	types, err := e.store.UniqueBoxTypes(ctx, whid)
	if err != nil {
		return err
	}
	return tghelpers.Send(c, textChooseBoxType, keyboards.BoxTypes(types, whid))
}

func (e *Engine) onWarehousePage(ctx context.Context, c tele.Context) error {
	if _, err := callbackMessage(c, "session.warehouse_page"); err != nil {
		return err
	}
	kb, err := e.warehouseKeyboard(ctx, payload(c).Page)
	if err != nil {
		return err
	}
	return tghelpers.EditMarkup(c, kb)
}

func (e *Engine) onPhonePage(ctx context.Context, c tele.Context) error {
	if _, err := callbackMessage(c, "session.phone_page"); err != nil {
		return err
	}
	uid, page := userID(c), payload(c).Page
	phones, err := e.store.PhonesPage(ctx, uid, page, e.opts.PageSize)
	if err != nil {
		return err
	}
	total, err := e.store.CountPhones(ctx, uid)
	if err != nil {
		return err
	}
	return tghelpers.EditMarkup(c, keyboards.Phones(page, e.opts.PageSize, total, phones))
}

// onWarehouseChosen fetches the slots of one warehouse. Any fetch failure,
// an empty answer included, sends the user back to the catalog.
func (e *Engine) onWarehouseChosen(ctx context.Context, c tele.Context) error {
	if _, err := callbackMessage(c, "session.warehouse"); err != nil {
		return err
	}
	whid := payload(c).WarehouseID
	raw, err := e.store.GetToken(ctx, userID(c))
	if err != nil {
		return err
	}

	if fetchErr := e.catalog.RefreshCoefficients(ctx, raw, whid); fetchErr != nil {
		kb, err := e.warehouseKeyboard(ctx, 0)
		if err != nil {
			return errors.Join(fetchErr, err)
		}
		if err := tghelpers.EditText(c, textNoWarehouseData, kb); err != nil {
			return errors.Join(fetchErr, err)
		}
		return answered{fetchErr}
	}

	types, err := e.store.UniqueBoxTypes(ctx, whid)
	if err != nil {
		return err
	}
	return tghelpers.EditText(c, textChooseBoxType, keyboards.BoxTypes(types, whid))
}

func (e *Engine) onBoxTypeChosen(ctx context.Context, c tele.Context) error {
	p := payload(c)
	if p.Kind != callbackdata.KindBoxType {
		return fmt.Errorf("%w: %q", errBadPayload, p.Raw)
	}
	if _, err := callbackMessage(c, "session.box_type"); err != nil {
		return err
	}
	report, err := e.store.WarehouseReport(ctx, p.WarehouseID, p.BoxType)
	if err != nil {
		return err
	}
	if err := tghelpers.Delete(c); err != nil {
		return err
	}
	return tghelpers.Send(c, report, keyboards.Coefficients(p.WarehouseID))
}

func (e *Engine) onUnknownCallback(_ context.Context, c tele.Context) error {
	return tghelpers.Send(c, fmt.Sprintf(textUnknownCb, payload(c).Raw))
}

func (e *Engine) warehouseKeyboard(ctx context.Context, page int) (*tele.ReplyMarkup, error) {
	list, err := e.store.WarehousesPage(ctx, page, e.opts.PageSize)
	if err != nil {
		return nil, err
	}
	total, err := e.store.CountWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	return keyboards.Warehouses(page, e.opts.PageSize, total, list), nil
}
