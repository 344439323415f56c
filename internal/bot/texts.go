package bot

import "fmt"

const (
	langRU = "ru"
	langUK = "uk"
)

var texts = map[string]map[string]string{
	langRU: {
		"welcome":           "Привет! Отправь 10-значный ID, чтобы найти сообщения.\n/balance - баланс, /history - мои запросы, /lang - язык, /report - отчёт.",
		"welcome_guest":     "Привет! Доступ к поиску выдаётся по приглашению. Попроси ссылку у администратора.",
		"reserved_ok":       "Доступ активирован. Баланс: %d.",
		"redeem_ok":         "Приглашение принято. Баланс: %d.",
		"lang_set":          "Язык: русский.",
		"balance":           "Баланс: %d.",
		"history_empty":     "Запросов пока нет.",
		"history_header":    "Последние запросы:",
		"not_authorized":    "Нет доступа к поиску.",
		"banned":            "Поиск заблокирован до %s.",
		"rate_limited":      "Слишком часто. Повтори через %s.",
		"no_credits":        "Кредиты закончились.",
		"token_not_found":   "Приглашение не найдено.",
		"token_expired":     "Срок приглашения истёк.",
		"token_used":        "Приглашение уже использовано.",
		"quota_exceeded":    "Лимит приглашений исчерпан.",
		"secret_not_found":  "Секрет не найден или истёк.",
		"not_admin":         "Команда только для администраторов.",
		"bad_request":       "Неверный запрос.",
		"try_again":         "Сервис временно недоступен, попробуй ещё раз.",
		"search_not_found":  "Ничего не найдено.",
		"no_text":           "(без текста)",
		"more":              "Ещё",
		"invite_link":       "Ссылка-приглашение (одноразовая):\n%s",
		"secret_issued":     "Отправь в группе: /authorize %s",
		"authorize_ok":      "Чат авторизован. ID девушки: %s.",
		"authorize_hint":    "Чат не авторизован. Администратор может отправить /authorize <секрет>.",
		"group_admin_only":  "Команда доступна только администраторам группы.",
		"unauthorize_ok":    "Чат отключён, сообщения удалены.",
		"owner_only":        "Команда доступна только владельцу.",
		"reserve_ok":        "Имя @%s зарезервировано.",
		"reserved_exists":   "Имя уже зарезервировано.",
		"grant_ok":          "Пользователь %d авторизован. Баланс: %d.",
		"topup_ok":          "Баланс пользователя %d: %d.",
		"stats":             "Чатов: %d\nСообщений: %d\nID парней: %d\nID девушек: %d",
		"usage_reserve":     "Использование: /reserve @username",
		"usage_grant":       "Использование: /grant <user_id> [кредиты]",
		"usage_topup":       "Использование: /topup <user_id> <сумма>",
		"usage_authorize":   "Использование: /authorize <секрет>",
		"usage_block":       "Использование: /block <user_id>",
		"usage_unblock":     "Использование: /unblock <user_id>",
		"usage_addadmin":    "Использование: /addadmin <user_id>",
		"usage_deladmin":    "Использование: /deladmin <user_id>",
		"usage_report":      "Использование: /report <ID девушки>",
		"block_ok":          "Пользователь %d заблокирован.",
		"unblock_ok":        "Пользователь %d разблокирован.",
		"admin_added":       "Пользователь %d назначен администратором.",
		"admin_removed":     "Пользователь %d больше не администратор.",
		"admins_header":     "Администраторы:",
		"chat_not_found":    "Чат с таким ID не найден.",
		"report_prompt":     "Напиши отчёт одним сообщением, он уйдёт в чат %s. /cancel - отмена.",
		"report_sent":       "Отчёт отправлен.",
		"report_rewarded":   "Отчёт отправлен, спасибо! Баланс: %d.",
		"report_failed":     "Не удалось отправить отчёт в чат.",
		"report_expired":    "Время на отчёт вышло, начни заново с /report.",
		"report_cancelled":  "Отчёт отменён.",
		"nothing_to_cancel": "Нечего отменять.",
	},
	langUK: {
		"welcome":           "Привіт! Надішли 10-значний ID, щоб знайти повідомлення.\n/balance - баланс, /history - мої запити, /lang - мова, /report - звіт.",
		"welcome_guest":     "Привіт! Доступ до пошуку надається за запрошенням. Попроси посилання в адміністратора.",
		"reserved_ok":       "Доступ активовано. Баланс: %d.",
		"redeem_ok":         "Запрошення прийнято. Баланс: %d.",
		"lang_set":          "Мова: українська.",
		"balance":           "Баланс: %d.",
		"history_empty":     "Запитів поки немає.",
		"history_header":    "Останні запити:",
		"not_authorized":    "Немає доступу до пошуку.",
		"banned":            "Пошук заблоковано до %s.",
		"rate_limited":      "Занадто часто. Повтори через %s.",
		"no_credits":        "Кредити закінчились.",
		"token_not_found":   "Запрошення не знайдено.",
		"token_expired":     "Термін запрошення минув.",
		"token_used":        "Запрошення вже використано.",
		"quota_exceeded":    "Ліміт запрошень вичерпано.",
		"secret_not_found":  "Секрет не знайдено або він прострочений.",
		"not_admin":         "Команда лише для адміністраторів.",
		"bad_request":       "Невірний запит.",
		"try_again":         "Сервіс тимчасово недоступний, спробуй ще раз.",
		"search_not_found":  "Нічого не знайдено.",
		"no_text":           "(без тексту)",
		"more":              "Ще",
		"invite_link":       "Посилання-запрошення (одноразове):\n%s",
		"secret_issued":     "Надішли в групі: /authorize %s",
		"authorize_ok":      "Чат авторизовано. ID дівчини: %s.",
		"authorize_hint":    "Чат не авторизовано. Адміністратор може надіслати /authorize <секрет>.",
		"group_admin_only":  "Команда доступна лише адміністраторам групи.",
		"unauthorize_ok":    "Чат вимкнено, повідомлення видалено.",
		"owner_only":        "Команда доступна лише власнику.",
		"reserve_ok":        "Ім'я @%s зарезервовано.",
		"reserved_exists":   "Ім'я вже зарезервовано.",
		"grant_ok":          "Користувача %d авторизовано. Баланс: %d.",
		"topup_ok":          "Баланс користувача %d: %d.",
		"stats":             "Чатів: %d\nПовідомлень: %d\nID хлопців: %d\nID дівчат: %d",
		"usage_reserve":     "Використання: /reserve @username",
		"usage_grant":       "Використання: /grant <user_id> [кредити]",
		"usage_topup":       "Використання: /topup <user_id> <сума>",
		"usage_authorize":   "Використання: /authorize <секрет>",
		"usage_block":       "Використання: /block <user_id>",
		"usage_unblock":     "Використання: /unblock <user_id>",
		"usage_addadmin":    "Використання: /addadmin <user_id>",
		"usage_deladmin":    "Використання: /deladmin <user_id>",
		"usage_report":      "Використання: /report <ID дівчини>",
		"block_ok":          "Користувача %d заблоковано.",
		"unblock_ok":        "Користувача %d розблоковано.",
		"admin_added":       "Користувача %d призначено адміністратором.",
		"admin_removed":     "Користувач %d більше не адміністратор.",
		"admins_header":     "Адміністратори:",
		"chat_not_found":    "Чат з таким ID не знайдено.",
		"report_prompt":     "Напиши звіт одним повідомленням, він піде в чат %s. /cancel - скасувати.",
		"report_sent":       "Звіт надіслано.",
		"report_rewarded":   "Звіт надіслано, дякуємо! Баланс: %d.",
		"report_failed":     "Не вдалося надіслати звіт у чат.",
		"report_expired":    "Час на звіт минув, почни знову з /report.",
		"report_cancelled":  "Звіт скасовано.",
		"nothing_to_cancel": "Нічого скасовувати.",
	},
}

// tr returns the localized text, falling back to russian and then to the key itself
func tr(lang, key string, args ...any) string {
	msg, ok := texts[lang][key]
	if !ok {
		msg, ok = texts[langRU][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
