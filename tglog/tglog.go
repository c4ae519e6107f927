package tglog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender: часть *bot.Bot, нужная каналу.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Channel дублирует события в лог-канал Telegram.
type Channel struct {
	b         Sender
	channelID int64
	log       *zap.Logger
}

// New создаёт лог-канал; при channelID 0 он выключен.
func New(b Sender, channelID int64, log *zap.Logger) *Channel {
	log = log.Named("tglog")
	if channelID == 0 {
		log.Info("LOG_CHANNEL_ID не задан, логирование в канал отключено")
	} else {
		log.Info("логирование в канал включено", zap.Int64("channel_id", channelID))
	}
	return &Channel{b: b, channelID: channelID, log: log}
}

func (c *Channel) Enabled() bool {
	return c != nil && c.channelID != 0
}

// Send отправляет сообщение в лог-канал (неблокирующий).
func (c *Channel) Send(format string, args ...any) {
	if !c.Enabled() {
		return
	}
	text := fmt.Sprintf(format, args...)
	go func() {
		if err := c.SendSync(context.Background(), text); err != nil {
			c.log.Warn("ошибка отправки лога в канал", zap.Error(err))
		}
	}()
}

// SendSync отправляет текст и ждёт ответа.
func (c *Channel) SendSync(ctx context.Context, text string) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    c.channelID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	return err
}
