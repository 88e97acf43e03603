// Package keyboards renders the bot's inline keyboards from store pages.
package keyboards

import (
	tele "gopkg.in/telebot.v4"

	"github.com/wbcoef/wbcoef/core/telegram/keyboard"
	"github.com/wbcoef/wbcoef/internal/callbackdata"
	"github.com/wbcoef/wbcoef/internal/domain"
)

// PageSize is the number of entities per paginated keyboard.
const PageSize = 10

const (
	labelWarehouses       = "📍Коэффиценты складов"
	labelMainMenu         = "🏠Главное меню"
	labelMainMenuSpaced   = "🏠 Главное меню"
	labelBack             = "⬅️ Назад"
	labelForward          = "Вперед ➡️"
	labelAnotherBoxType   = "📦Выбрать другой тип поставки"
	labelAnotherWarehouse = "📍Выбрать другой склад"
	phoneCountryPrefix    = "+7"
)

var homeSpaced = keyboard.InlineBtn{Text: labelMainMenuSpaced, Data: callbackdata.MainMenu}

// MainMenu is the single-button entry keyboard.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtons(keyboard.InlineBtn{Text: labelWarehouses, Data: callbackdata.WarehousesList})
}

// ToMainMenu offers a way back while the bot waits for input.
func ToMainMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtons(keyboard.InlineBtn{Text: labelMainMenu, Data: callbackdata.MainMenu})
}

// Warehouses renders one page of the warehouse catalog; total is the
// catalog size.
func Warehouses(page, size, total int, list []domain.Warehouse) *tele.ReplyMarkup {
	items := make([]keyboard.InlineBtn, len(list))
	for i, w := range list {
		items[i] = keyboard.InlineBtn{Text: w.Name, Data: callbackdata.Warehouse(w.ID)}
	}
	return paged(items, page, size, total, callbackdata.WarehousePage)
}

// Phones renders one page of the user's phone profiles.
func Phones(page, size, total int, phones []string) *tele.ReplyMarkup {
	items := make([]keyboard.InlineBtn, len(phones))
	for i, p := range phones {
		items[i] = keyboard.InlineBtn{Text: phoneCountryPrefix + p, Data: callbackdata.Phone(p)}
	}
	return paged(items, page, size, total, callbackdata.PhonePage)
}

// BoxTypes lists the box types stored for a warehouse.
func BoxTypes(types []string, warehouseID uint32) *tele.ReplyMarkup {
	g := new(keyboard.Grid)
	for _, t := range types {
		g.Row(keyboard.InlineBtn{Text: t, Data: callbackdata.BoxType(t, warehouseID)})
	}
	return g.Row(homeSpaced).Markup()
}

// Coefficients follows a warehouse report.
func Coefficients(warehouseID uint32) *tele.ReplyMarkup {
	return keyboard.InlineButtons(
		keyboard.InlineBtn{Text: labelAnotherBoxType, Data: callbackdata.AnotherBoxType(warehouseID)},
		keyboard.InlineBtn{Text: labelAnotherWarehouse, Data: callbackdata.AnotherWarehouse},
		keyboard.InlineBtn{Text: labelMainMenu, Data: callbackdata.MainMenu},
	)
}

func paged(items []keyboard.InlineBtn, page, size, total int, pageData func(int) string) *tele.ReplyMarkup {
	g := new(keyboard.Grid).Column(items...)

	var nav []keyboard.InlineBtn
	if page > 0 {
		nav = append(nav, keyboard.InlineBtn{Text: labelBack, Data: pageData(page - 1)})
	}
	if (page+1)*size < total {
		nav = append(nav, keyboard.InlineBtn{Text: labelForward, Data: pageData(page + 1)})
	}
	return g.Row(nav...).Row(homeSpaced).Markup()
}
