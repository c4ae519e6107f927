// Package sessions хранит состояние многошаговых диалогов отдельно для
// каждого пользователя в каждом чате.
package sessions

import (
	"context"
	"time"

	"go_ads_bot/ads"
)

const DefaultTTL = 15 * time.Minute

type State string

const (
	StateIdle              State = "idle"
	StateAwaitingAdData    State = "awaiting_ad_data"
	StateAwaitingEditValue State = "awaiting_edit_value"
	StateAwaitingReach     State = "awaiting_reach"
)

// Key адресует сессию: в группе у каждого участника свой диалог.
type Key struct {
	ChatID int64
	UserID int64
}

type Session struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
	State  State `json:"state"`

	// Тип, выбранный кнопкой до ввода текста. Если пусто, тип определяется по значению.
	PendingType ads.AdType `json:"pending_type,omitempty"`

	RecordID int64     `json:"record_id,omitempty"`
	Field    ads.Field `json:"field,omitempty"`

	ExpiresAt time.Time `json:"expires_at"`
}

func Idle(k Key) Session {
	return Session{ChatID: k.ChatID, UserID: k.UserID, State: StateIdle}
}

func (s Session) Key() Key {
	return Key{ChatID: s.ChatID, UserID: s.UserID}
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store загружает и сохраняет сессии. Для неизвестного или истёкшего ключа Get
// возвращает Idle без ошибки.
type Store interface {
	Get(ctx context.Context, k Key) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context, k Key) error
}

// AwaitAdData ждёт текст объявления; hint задаёт тип, выбранный кнопкой.
func AwaitAdData(ctx context.Context, st Store, k Key, hint ads.AdType, ttl time.Duration) error {
	return st.Save(ctx, Session{
		ChatID:      k.ChatID,
		UserID:      k.UserID,
		State:       StateAwaitingAdData,
		PendingType: hint,
		ExpiresAt:   time.Now().Add(ttl),
	})
}

func AwaitEditValue(ctx context.Context, st Store, k Key, recordID int64, field ads.Field, ttl time.Duration) error {
	return st.Save(ctx, Session{
		ChatID:    k.ChatID,
		UserID:    k.UserID,
		State:     StateAwaitingEditValue,
		RecordID:  recordID,
		Field:     field,
		ExpiresAt: time.Now().Add(ttl),
	})
}

func AwaitReach(ctx context.Context, st Store, k Key, recordID int64, ttl time.Duration) error {
	return st.Save(ctx, Session{
		ChatID:    k.ChatID,
		UserID:    k.UserID,
		State:     StateAwaitingReach,
		RecordID:  recordID,
		ExpiresAt: time.Now().Add(ttl),
	})
}
