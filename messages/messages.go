package messages

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"go_ads_bot/ads"

	"github.com/shopspring/decimal"
)

// Кнопки главного меню.
const (
	BtnAddAd      = "Добавить рекламу"
	BtnViewDB     = "Просмотреть БД"
	BtnHelp       = "Помощь"
	BtnAdminPanel = "🔧 Админ-панель"
	BtnBack       = "⬅️ Назад"
)

const (
	MsgWelcome = `🚀 Добро пожаловать в рекламный бот!

Я помогу вам управлять рекламными объявлениями.
Используйте меню ниже для навигации.`

	MsgMainMenu   = `Главное меню:`
	MsgChooseType = `Выберите тип рекламы:`
	MsgEmptyDB    = `База данных пуста.`
	MsgNoAccess   = `У вас нет доступа к этой функции.`
	MsgNotFound   = `Запись не найдена.`
	MsgError      = `❌ Произошла непредвиденная ошибка. Попробуйте позже или обратитесь в техподдержку.`
	MsgNoData     = `❌ Сообщение не содержит данных`
	MsgUseMenu    = `Используйте меню ниже. Чтобы добавить запись, нажмите «Добавить рекламу».`

	MsgAdminPanel   = `🔧 Панель администратора:`
	MsgChooseEdit   = `Выберите запись для редактирования:`
	MsgChooseDelete = `Выберите запись для удаления:`
	MsgStatusToggle = `Статус успешно изменен!`
	MsgDeleted      = `Запись успешно удалена!`
	MsgUpdated      = `✅ Запись обновлена.`
	MsgReachSaved   = `✅ Охват сохранён.`
	MsgEnterReach   = `Введите охват (целое число):`

	MsgHelp = `📚 Инструкция по использованию бота:

1. Добавление рекламы:
   - Нажмите «Добавить рекламу»
   - Выберите тип (CPM или ФИКС)
   - Введите данные в формате:
     ДД.ММ.ГГГГ, @юзер, время, условия, CPM/сумма

   Без выбора типа: если в сумме есть точка — это CPM, иначе ФИКС.
   Целую ставку CPM (например, 50) указывайте с типом:
     ДД.ММ.ГГГГ, @юзер, время, условия, CPM, 50

2. Допустимые условия:
   - 24ч, 48ч, 72ч
   - 3дня, неделя
   - бессрочно

3. Просмотр базы данных:
   - Нажмите «Просмотреть БД»`
)

// MaxMessageLen с запасом до лимита Telegram в 4096 символов.
const MaxMessageLen = 4000

func FormatEnterData(t ads.AdType) string {
	return fmt.Sprintf("Введите данные (%s) в формате:\n%s", t.Label(), ads.InputFormat)
}

// FormatRejection: текст для пользователя при отклонённой заявке.
func FormatRejection(err error) string {
	switch {
	case errors.Is(err, ads.ErrMalformedInput):
		return "❌ Неверный формат! Используйте формат:\n" + ads.InputFormat
	case errors.Is(err, ads.ErrInvalidAdType):
		return "❌ Ошибка в типе рекламы! Допустимые типы: CPM или ФИКС"
	case errors.Is(err, ads.ErrInvalidConditions):
		return "❌ Неверные условия! Допустимые условия: " + conditionsList()
	case errors.Is(err, ads.ErrInvalidDate):
		return "❌ Неверный формат даты! Используйте формат ДД.ММ.ГГГГ"
	case errors.Is(err, ads.ErrInvalidValue):
		return "❌ Ошибка в данных: неверное значение.\nПроверьте правильность введенных значений."
	case errors.Is(err, ads.ErrInvalidField):
		return "❌ Это поле нельзя изменить для этой записи."
	case errors.Is(err, ads.ErrNotFound):
		return "❌ " + MsgNotFound
	}
	return MsgError
}

func conditionsList() string {
	names := make([]string, len(ads.Conditions))
	for i, c := range ads.Conditions {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func FormatSaved(r *ads.Record) string {
	return fmt.Sprintf(`✅ Запись успешно сохранена!

📅 Дата: %s
⏰ Время: %s
👤 Пользователь: %s
📋 Условия: %s
📈 Тип рекламы: %s
💰 Значение: %s`,
		r.Date.Format(ads.DateLayout), clip(r.Time), clip(r.Username),
		r.Conditions, r.Type.Label(), r.Value().String())
}

// FormatCard рисует карточку записи в меню редактирования.
func FormatCard(r *ads.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Редактирование записи ID: %d\n\n", r.ID)
	fmt.Fprintf(&b, "Тип: %s\n", r.Type.Label())
	fmt.Fprintf(&b, "Дата: %s\n", r.Date.Format(ads.DateLayout))
	fmt.Fprintf(&b, "Пользователь: %s\n", clip(r.Username))
	fmt.Fprintf(&b, "Время: %s\n", clip(r.Time))
	fmt.Fprintf(&b, "Условия: %s\n", r.Conditions)
	if r.Type == ads.TypeCPM {
		fmt.Fprintf(&b, "CPM: %s\n", r.Value().String())
	} else {
		fmt.Fprintf(&b, "Прибыль: %s\n", r.Value().String())
	}
	fmt.Fprintf(&b, "Охват: %s\n", reach(r))
	fmt.Fprintf(&b, "Статус: %s", r.PaymentStatus.Label())
	return b.String()
}

// MaxFieldLen ограничивает имя и время в карточках, чтобы одна запись
// всегда помещалась в сообщение.
const MaxFieldLen = 200

// clip обрезает свободный текст до MaxFieldLen символов и экранирует HTML.
func clip(s string) string {
	if utf8.RuneCountInString(s) > MaxFieldLen {
		s = string([]rune(s)[:MaxFieldLen-1]) + "…"
	}
	return html.EscapeString(s)
}

func formatListEntry(r *ads.Record) string {
	return fmt.Sprintf(`<b>#%d</b>
Тип: %s
Дата: %s
Время: %s
Юзер: %s
Условия: %s
CPM: %s
Охват: %s
Прибыль: %s
Статус: %s
%s`,
		r.ID, r.Type.Label(), r.Date.Format(ads.DateLayout), clip(r.Time),
		clip(r.Username), r.Conditions, amount(r.CPM), reach(r), amount(r.Profit),
		r.PaymentStatus.Label(), strings.Repeat("=", 20))
}

// FormatList выводит все записи, разбивая их на сообщения не длиннее MaxMessageLen.
func FormatList(recs []ads.Record) []string {
	if len(recs) == 0 {
		return []string{MsgEmptyDB}
	}
	var (
		out []string
		b   strings.Builder
	)
	b.WriteString("📊 Все записи:\n")
	for i := range recs {
		entry := formatListEntry(&recs[i])
		if b.Len()+len(entry)+1 > MaxMessageLen {
			out = append(out, b.String())
			b.Reset()
		}
		b.WriteString("\n")
		b.WriteString(entry)
	}
	return append(out, b.String())
}

func FormatStats(s ads.Stats) string {
	return fmt.Sprintf(`📊 Статистика

Всего записей: %d
CPM: %d
ФИКС: %d

Оплачено: %d
Не оплачено: %d

Прибыль (ФИКС): %s
Выручка CPM (оценка): %s
Суммарный охват: %d
CPM без охвата: %d`,
		s.Total, s.CPM, s.Fixed, s.Paid, s.Unpaid,
		s.FixedProfit.StringFixed(2), s.CPMRevenue.StringFixed(2), s.Reach, s.AwaitingReach)
}

func FormatEditPrompt(f ads.Field) string {
	switch f {
	case ads.FieldAdType:
		return "Введите тип: CPM или ФИКС"
	case ads.FieldDate:
		return "Введите дату в формате ДД.ММ.ГГГГ"
	case ads.FieldConditions:
		return "Введите условия: " + conditionsList()
	case ads.FieldPaymentStatus:
		return "Введите статус: Оплачено или Не оплачено"
	}
	return fmt.Sprintf("Введите новое значение (%s):", f.Label())
}

func FormatCreatedLog(r *ads.Record, by string) string {
	return fmt.Sprintf("➕ Запись #%d (%s) %s на %s %s, %s — добавил %s",
		r.ID, r.Type.Label(), clip(r.Username), r.Date.Format(ads.DateLayout),
		clip(r.Time), r.Value().String(), html.EscapeString(by))
}

func FormatDeletedLog(id int64, by string) string {
	return fmt.Sprintf("🗑 Запись #%d удалена — %s", id, html.EscapeString(by))
}

func FormatMatured(r *ads.Record) string {
	return fmt.Sprintf(`⏰ Прошли сутки с размещения <b>#%d</b> %s (%s %s, CPM %s).

Внесите охват в админ-панели.`,
		r.ID, clip(r.Username), r.Date.Format(ads.DateLayout),
		clip(r.Time), r.Value().String())
}

func amount(v *decimal.Decimal) string {
	if v == nil {
		return "—"
	}
	return v.String()
}

func reach(r *ads.Record) string {
	if r.Reach == nil {
		return "—"
	}
	return fmt.Sprintf("%d", *r.Reach)
}
