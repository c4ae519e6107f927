package handlers

import (
	"context"
	"strings"

	"go_ads_bot/ads"
	"go_ads_bot/config"
	"go_ads_bot/messages"
	"go_ads_bot/metrics"
	"go_ads_bot/sessions"
	"go_ads_bot/tglog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type Handler struct {
	bot         *bot.Bot
	cfg         *config.Config
	ads         *ads.Manager
	sessions    sessions.Store
	channel     *tglog.Channel
	metrics     *metrics.Metrics
	log         *zap.Logger
	botUsername string
}

func New(
	b *bot.Bot,
	cfg *config.Config,
	manager *ads.Manager,
	store sessions.Store,
	channel *tglog.Channel,
	m *metrics.Metrics,
	log *zap.Logger,
) *Handler {
	return &Handler{
		bot:      b,
		cfg:      cfg,
		ads:      manager,
		sessions: store,
		channel:  channel,
		metrics:  m,
		log:      log.Named("handlers"),
	}
}

// SetBotUsername включает приём данных через "@bot <данные>".
func (h *Handler) SetBotUsername(username string) {
	h.botUsername = username
}

// Register подключает обработчики к боту.
func (h *Handler) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, h.OnMessage)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, h.OnCallback)
}

func (h *Handler) OnMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message
	text := strings.TrimSpace(msg.Text)
	key := messageKey(msg)

	switch {
	case strings.HasPrefix(text, "/start"):
		h.resetSession(ctx, key)
		h.sendMenu(ctx, msg.Chat.ID, messages.MsgWelcome)
	case text == "/help" || text == messages.BtnHelp:
		h.sendMenu(ctx, msg.Chat.ID, messages.MsgHelp)
	case text == "/cancel" || text == messages.BtnBack:
		h.resetSession(ctx, key)
		h.sendMenu(ctx, msg.Chat.ID, messages.MsgMainMenu)
	case text == messages.BtnAddAd:
		h.sendMarkup(ctx, msg.Chat.ID, messages.MsgChooseType, adTypeMenu())
	case text == messages.BtnViewDB:
		h.viewAll(ctx, msg.Chat.ID)
	case text == messages.BtnAdminPanel:
		if !h.cfg.IsAdmin(msg.From.ID) {
			h.send(ctx, msg.Chat.ID, messages.MsgNoAccess)
			return
		}
		h.sendMarkup(ctx, msg.Chat.ID, messages.MsgAdminPanel, adminMenu())
	case h.isMention(text):
		h.onMention(ctx, msg, text)
	default:
		h.onSessionText(ctx, msg, key, text)
	}
}

func (h *Handler) isMention(text string) bool {
	return h.botUsername != "" && strings.HasPrefix(text, "@"+h.botUsername)
}

func (h *Handler) onMention(ctx context.Context, msg *models.Message, text string) {
	clean := strings.TrimSpace(strings.TrimPrefix(text, "@"+h.botUsername))
	if clean == "" {
		h.reply(ctx, msg, messages.MsgNoData)
		return
	}
	h.submitAd(ctx, msg, clean, "")
}

// onSessionText разбирает свободный текст по шагу, которого ждёт автор сообщения.
func (h *Handler) onSessionText(ctx context.Context, msg *models.Message, key sessions.Key, text string) {
	s, err := h.sessions.Get(ctx, key)
	if err != nil {
		h.log.Warn("load session", zap.Int64("chat_id", key.ChatID), zap.Int64("user_id", key.UserID), zap.Error(err))
		s = sessions.Idle(key)
	}

	switch s.State {
	case sessions.StateAwaitingAdData:
		// Любая попытка, удачная или нет, возвращает диалог в исходное состояние.
		h.resetSession(ctx, key)
		h.submitAd(ctx, msg, text, s.PendingType)
	case sessions.StateAwaitingEditValue:
		h.applyEdit(ctx, msg, s, text)
	case sessions.StateAwaitingReach:
		h.applyReach(ctx, msg, s, text)
	default:
		h.sendMenu(ctx, key.ChatID, messages.MsgUseMenu)
	}
}

func (h *Handler) submitAd(ctx context.Context, msg *models.Message, text string, hint ads.AdType) {
	draft, err := ads.Parse(text, hint)
	if err != nil {
		h.metrics.RecordRejected(err)
		h.log.Info("ad rejected", zap.Int64("user_id", msg.From.ID), zap.String("reason", ads.Reason(err)))
		h.reply(ctx, msg, messages.FormatRejection(err))
		return
	}

	rec, err := h.ads.Create(ctx, draft)
	if err != nil {
		h.reply(ctx, msg, messages.MsgError)
		return
	}

	h.replyMarkup(ctx, msg, messages.FormatSaved(rec), mainMenu())
	h.channel.Send("%s", messages.FormatCreatedLog(rec, displayName(msg.From)))
}

func (h *Handler) viewAll(ctx context.Context, chatID int64) {
	recs, err := h.ads.List(ctx, ads.OrderInserted)
	if err != nil {
		h.sendMenu(ctx, chatID, "❌ Произошла ошибка при просмотре базы данных.")
		return
	}
	for _, chunk := range messages.FormatList(recs) {
		h.sendMenu(ctx, chatID, chunk)
	}
}

// messageKey: у каждого участника группы свой диалог с ботом.
func messageKey(msg *models.Message) sessions.Key {
	return sessions.Key{ChatID: msg.Chat.ID, UserID: msg.From.ID}
}

func (h *Handler) resetSession(ctx context.Context, key sessions.Key) {
	if err := h.sessions.Clear(ctx, key); err != nil {
		h.log.Warn("clear session", zap.Int64("chat_id", key.ChatID), zap.Int64("user_id", key.UserID), zap.Error(err))
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	h.sendMarkup(ctx, chatID, text, nil)
}

func (h *Handler) sendMenu(ctx context.Context, chatID int64, text string) {
	h.sendMarkup(ctx, chatID, text, mainMenu())
}

func (h *Handler) sendMarkup(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := h.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.log.Warn("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handler) reply(ctx context.Context, msg *models.Message, text string) {
	h.replyMarkup(ctx, msg, text, nil)
}

func (h *Handler) replyMarkup(ctx context.Context, msg *models.Message, text string, markup models.ReplyMarkup) {
	_, err := h.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          msg.Chat.ID,
		Text:            text,
		ParseMode:       models.ParseModeHTML,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
		ReplyMarkup:     markup,
	})
	if err != nil {
		h.log.Warn("reply", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}

func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
