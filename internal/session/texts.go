package session

const (
	textHelp = "/start - начать пользоваться ботом. (Это дейстиве добавит тебя в список пользователей ботом и так же ты будешь получать уведомления о разных нововведениях)"

	textWelcome = "🍆 Я бот для работы с <b>Wildberris</b>! 🍆\n\n" +
		"На <b>Wildberris</b> я могу показать тебе коэффиценты по складам " +
		"(в скором времени надеюсь смогу уведомлять о 😋вкусных😋 коэффицентах), " +
		"а так же найду слот с <b>бесплатной или платной приемкой</b> до подходящего коэффицента.\n\nВыбирай!"

	textMainMenu         = "Главное меню"
	textChooseWarehouse  = "Выберите склад"
	textAnotherWarehouse = "Выберите другой склад"
	textChooseBoxType    = "Выберите тип поставки"
	textNoWarehouseData  = "WB не предоставил информации по данному складу\nВыберите другой склад"

	textTokenHint      = "Токен должен быть создан для работы с категорией <b>'Поставки'</b>"
	textEnterToken     = "Введите токен\n\n" + textTokenHint
	textTokenExpiredAt = "Срок действия токена истек. Действовал до %s.\n\nВведите новый токен\n\n" + textTokenHint
	textTokenValidTill = "Токен действителен до %s"
	textTokenNotSet    = "Токен не был введен"
	textTokenExpired   = "Токен просрочен, введите другой токен"
	textTokenInvalid   = "Токен невалиден, введите другой токен"

	textBroadcastDone  = "Отправлено всем."
	textBroadcastUsage = "Использование: /msg_to_all <текст>"
	textDenied         = "Недостатоно прав."
	textApology        = "Внутренняя ошибка, попробуйте повторить позже"
	textUnknownCb      = "Неизвестный callback: %s"
	textBotStarted     = "Бот запущен"
)
