package handlers

import (
	"context"
	"errors"
	"strings"

	"go_ads_bot/ads"
	"go_ads_bot/messages"
	"go_ads_bot/sessions"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func (h *Handler) OnCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	cb := update.CallbackQuery
	msg := cb.Message.Message
	if msg == nil {
		h.answer(ctx, cb.ID, "")
		return
	}
	key := sessions.Key{ChatID: msg.Chat.ID, UserID: cb.From.ID}

	switch cb.Data {
	case cbTypeCPM:
		h.chooseType(ctx, cb, msg, key, ads.TypeCPM)
		return
	case cbTypeFixed:
		h.chooseType(ctx, cb, msg, key, ads.TypeFixed)
		return
	case cbOpenMenu:
		h.answer(ctx, cb.ID, "")
		h.resetSession(ctx, key)
		h.deleteMessage(ctx, msg)
		h.sendMenu(ctx, msg.Chat.ID, messages.MsgMainMenu)
		return
	}

	// Всё остальное доступно только администраторам.
	if !h.cfg.IsAdmin(cb.From.ID) {
		h.answer(ctx, cb.ID, messages.MsgNoAccess)
		return
	}
	h.answer(ctx, cb.ID, "")

	switch cb.Data {
	case cbAdmin:
		h.resetSession(ctx, key)
		h.edit(ctx, msg, messages.MsgAdminPanel, adminMenu())
		return
	case cbEditAds:
		h.resetSession(ctx, key)
		h.showRecords(ctx, msg, messages.MsgChooseEdit, actEdit)
		return
	case cbDeleteAds:
		h.showRecords(ctx, msg, messages.MsgChooseDelete, actDelete)
		return
	case cbStats:
		h.showStats(ctx, msg)
		return
	}

	action, id, ok := parsePayload(cb.Data)
	if !ok {
		h.log.Debug("unknown callback", zap.String("data", cb.Data))
		return
	}

	switch {
	case action == actEdit:
		h.resetSession(ctx, key)
		h.showRecord(ctx, msg, id)
	case action == actStatus:
		h.toggleStatus(ctx, msg, id)
	case action == actDelete:
		h.deleteRecord(ctx, cb, msg, id)
	case action == actReach:
		h.askReach(ctx, msg, key, id)
	case strings.HasPrefix(action, actFieldPrefix):
		h.askField(ctx, msg, key, id, strings.TrimPrefix(action, actFieldPrefix))
	default:
		h.log.Debug("unknown callback action", zap.String("action", action))
	}
}

func (h *Handler) chooseType(ctx context.Context, cb *models.CallbackQuery, msg *models.Message, key sessions.Key, t ads.AdType) {
	h.answer(ctx, cb.ID, "")
	if err := sessions.AwaitAdData(ctx, h.sessions, key, t, h.cfg.SessionTTL); err != nil {
		h.log.Warn("save session", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		h.send(ctx, msg.Chat.ID, messages.MsgError)
		return
	}
	h.edit(ctx, msg, messages.FormatEnterData(t), cancelMenu())
}

func (h *Handler) showRecords(ctx context.Context, msg *models.Message, title, action string) {
	recs, err := h.ads.List(ctx, ads.OrderNewestFirst)
	if err != nil {
		h.edit(ctx, msg, messages.MsgError, adminMenu())
		return
	}
	if len(recs) == 0 {
		h.edit(ctx, msg, messages.MsgEmptyDB, adminMenu())
		return
	}
	h.edit(ctx, msg, title, recordsMenu(recs, action))
}

func (h *Handler) showRecord(ctx context.Context, msg *models.Message, id int64) {
	rec, err := h.ads.Get(ctx, id)
	if err != nil {
		h.edit(ctx, msg, messages.FormatRejection(err), adminMenu())
		return
	}
	h.edit(ctx, msg, messages.FormatCard(rec), recordMenu(rec))
}

func (h *Handler) showStats(ctx context.Context, msg *models.Message) {
	st, err := h.ads.Stats(ctx)
	if err != nil {
		h.edit(ctx, msg, messages.MsgError, adminMenu())
		return
	}
	h.edit(ctx, msg, messages.FormatStats(st), adminMenu())
}

func (h *Handler) toggleStatus(ctx context.Context, msg *models.Message, id int64) {
	if _, err := h.ads.TogglePaymentStatus(ctx, id); err != nil {
		h.edit(ctx, msg, messages.FormatRejection(err), adminMenu())
		return
	}
	h.send(ctx, msg.Chat.ID, messages.MsgStatusToggle)
	h.showRecord(ctx, msg, id)
}

func (h *Handler) deleteRecord(ctx context.Context, cb *models.CallbackQuery, msg *models.Message, id int64) {
	if err := h.ads.Delete(ctx, id); err != nil {
		h.edit(ctx, msg, messages.FormatRejection(err), adminMenu())
		return
	}
	h.channel.Send("%s", messages.FormatDeletedLog(id, displayName(&cb.From)))
	h.send(ctx, msg.Chat.ID, messages.MsgDeleted)
	h.showRecords(ctx, msg, messages.MsgChooseDelete, actDelete)
}

func (h *Handler) askField(ctx context.Context, msg *models.Message, key sessions.Key, id int64, name string) {
	f, err := ads.ParseField(name)
	if err != nil {
		h.edit(ctx, msg, messages.FormatRejection(err), adminMenu())
		return
	}
	if err := sessions.AwaitEditValue(ctx, h.sessions, key, id, f, h.cfg.SessionTTL); err != nil {
		h.log.Warn("save session", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		h.send(ctx, msg.Chat.ID, messages.MsgError)
		return
	}
	h.edit(ctx, msg, messages.FormatEditPrompt(f), editCancelMenu(id))
}

func (h *Handler) askReach(ctx context.Context, msg *models.Message, key sessions.Key, id int64) {
	if err := sessions.AwaitReach(ctx, h.sessions, key, id, h.cfg.SessionTTL); err != nil {
		h.log.Warn("save session", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		h.send(ctx, msg.Chat.ID, messages.MsgError)
		return
	}
	h.edit(ctx, msg, messages.MsgEnterReach, editCancelMenu(id))
}

// applyEdit оставляет сессию при неверном значении, чтобы админ ввёл его заново.
func (h *Handler) applyEdit(ctx context.Context, msg *models.Message, s sessions.Session, text string) {
	if !h.cfg.IsAdmin(msg.From.ID) {
		h.resetSession(ctx, s.Key())
		h.send(ctx, msg.Chat.ID, messages.MsgNoAccess)
		return
	}
	err := h.ads.UpdateField(ctx, s.RecordID, string(s.Field), text)
	if h.afterEdit(ctx, msg, s, err) {
		h.reply(ctx, msg, messages.MsgUpdated)
		h.sendRecord(ctx, msg.Chat.ID, s.RecordID)
	}
}

func (h *Handler) applyReach(ctx context.Context, msg *models.Message, s sessions.Session, text string) {
	if !h.cfg.IsAdmin(msg.From.ID) {
		h.resetSession(ctx, s.Key())
		h.send(ctx, msg.Chat.ID, messages.MsgNoAccess)
		return
	}
	err := h.ads.SetReach(ctx, s.RecordID, text)
	if h.afterEdit(ctx, msg, s, err) {
		h.reply(ctx, msg, messages.MsgReachSaved)
		h.sendRecord(ctx, msg.Chat.ID, s.RecordID)
	}
}

// afterEdit сообщает, прошло ли изменение, и закрывает или оставляет сессию.
func (h *Handler) afterEdit(ctx context.Context, msg *models.Message, s sessions.Session, err error) bool {
	switch {
	case err == nil:
		h.resetSession(ctx, s.Key())
		return true
	case errors.Is(err, ads.ErrNotFound), errors.Is(err, ads.ErrInvalidField), errors.Is(err, ads.ErrStorage):
		h.resetSession(ctx, s.Key())
		h.replyMarkup(ctx, msg, messages.FormatRejection(err), adminMenu())
	default:
		h.replyMarkup(ctx, msg, messages.FormatRejection(err), editCancelMenu(s.RecordID))
	}
	return false
}

func (h *Handler) sendRecord(ctx context.Context, chatID, id int64) {
	rec, err := h.ads.Get(ctx, id)
	if err != nil {
		h.send(ctx, chatID, messages.FormatRejection(err))
		return
	}
	h.sendMarkup(ctx, chatID, messages.FormatCard(rec), recordMenu(rec))
}

func (h *Handler) answer(ctx context.Context, callbackID, text string) {
	_, err := h.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       text != "",
	})
	if err != nil {
		h.log.Debug("answer callback", zap.Error(err))
	}
}

// edit заменяет текст сообщения с инлайн-клавиатурой.
func (h *Handler) edit(ctx context.Context, msg *models.Message, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := h.bot.EditMessageText(ctx, params); err != nil {
		h.log.Warn("edit message", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}

func (h *Handler) deleteMessage(ctx context.Context, msg *models.Message) {
	_, err := h.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: msg.Chat.ID, MessageID: msg.ID})
	if err != nil {
		h.log.Debug("delete message", zap.Error(err))
	}
}
