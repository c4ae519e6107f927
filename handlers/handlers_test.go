package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	"go_ads_bot/ads"
	"go_ads_bot/config"
	"go_ads_bot/messages"
	"go_ads_bot/metrics"
	"go_ads_bot/sessions"
	"go_ads_bot/storage"
	"go_ads_bot/tglog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminID = int64(100)
	userID  = int64(200)
	chatID  = int64(555)
)

type apiCall struct {
	method string
	form   map[string]string
}

// tgServer отвечает на запросы Bot API и запоминает их.
type tgServer struct {
	mu    sync.Mutex
	calls []apiCall
}

func (s *tgServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	form := map[string]string{}
	if err := r.ParseMultipartForm(1 << 20); err == nil {
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
	}
	s.mu.Lock()
	s.calls = append(s.calls, apiCall{method: method, form: form})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "answerCallbackQuery", "deleteMessage":
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	default:
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":555,"type":"private"}}}`))
	}
}

func (s *tgServer) texts(method string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		if c.method == method {
			out = append(out, c.form["text"])
		}
	}
	return out
}

func (s *tgServer) last(method string) string {
	t := s.texts(method)
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

type nopScheduler struct{ ids []int64 }

func (n *nopScheduler) Schedule(_ time.Time, id int64) { n.ids = append(n.ids, id) }

type env struct {
	h        *Handler
	b        *bot.Bot
	api      *tgServer
	store    *storage.Storage
	sessions *sessions.MemoryStore
	sched    *nopScheduler
	reg      *prometheus.Registry
	manager  *ads.Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	api := &tgServer{}
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	b, err := bot.New("123:test", bot.WithServerURL(ts.URL), bot.WithSkipGetMe())
	require.NoError(t, err)

	cfg := &config.Config{AdminIDs: []int64{adminID}, SessionTTL: time.Minute}
	e := &env{
		b:        b,
		api:      api,
		store:    storage.New(),
		sessions: sessions.NewMemoryStore(),
		sched:    &nopScheduler{},
		reg:      prometheus.NewRegistry(),
	}
	m := metrics.New(e.reg, nil)
	e.manager = ads.NewManager(e.store, e.sched, zap.NewNop(), ads.WithRecorder(m))
	e.h = New(b, cfg, e.manager, e.sessions, tglog.New(b, 0, zap.NewNop()), m, zap.NewNop())
	e.h.SetBotUsername("ads_bot")
	return e
}

func (e *env) text(from int64, text string) {
	e.h.OnMessage(context.Background(), e.b, &models.Update{Message: &models.Message{
		ID:   10,
		From: &models.User{ID: from, Username: "tester"},
		Chat: models.Chat{ID: chatID, Type: models.ChatTypePrivate},
		Text: text,
	}})
}

func (e *env) press(from int64, data string) {
	e.h.OnCallback(context.Background(), e.b, &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb",
		From: models.User{ID: from},
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 20, Chat: models.Chat{ID: chatID}},
		},
	}})
}

func (e *env) session(t *testing.T, user int64) sessions.Session {
	t.Helper()
	s, err := e.sessions.Get(context.Background(), sessions.Key{ChatID: chatID, UserID: user})
	require.NoError(t, err)
	return s
}

func TestHandler_GuidedAddUsesHint(t *testing.T) {
	e := newEnv(t)

	e.press(userID, cbTypeCPM)
	s := e.session(t, userID)
	assert.Equal(t, sessions.StateAwaitingAdData, s.State)
	assert.Equal(t, ads.TypeCPM, s.PendingType)
	assert.Equal(t, messages.FormatEnterData(ads.TypeCPM), e.api.last("editMessageText"))

	e.text(userID, "01.05.2025, @user, 18:00, 24ч, 50")

	recs, err := e.manager.List(context.Background(), ads.OrderInserted)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, ads.TypeCPM, recs[0].Type)
	assert.Equal(t, []int64{recs[0].ID}, e.sched.ids)
	assert.Equal(t, sessions.StateIdle, e.session(t, userID).State)
	assert.Contains(t, e.api.last("sendMessage"), "Запись успешно сохранена")
}

func TestHandler_RejectedSubmissionReturnsToIdle(t *testing.T) {
	e := newEnv(t)

	e.press(userID, cbTypeFixed)
	e.text(userID, "31.13.2025, @user, 18:00, 24ч, 500")

	assert.Equal(t, sessions.StateIdle, e.session(t, userID).State)
	assert.Equal(t, messages.FormatRejection(ads.ErrInvalidDate), e.api.last("sendMessage"))
	recs, err := e.manager.List(context.Background(), ads.OrderInserted)
	require.NoError(t, err)
	assert.Empty(t, recs)

	n, err := testutil.GatherAndCount(e.reg, "adsbot_submissions_rejected_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandler_MentionSubmission(t *testing.T) {
	e := newEnv(t)

	e.text(userID, "@ads_bot 01.05.2025, @user, 18:00, 24ч, CPM, 50")
	recs, err := e.manager.List(context.Background(), ads.OrderInserted)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, ads.TypeCPM, recs[0].Type)

	e.text(userID, "@ads_bot")
	assert.Equal(t, messages.MsgNoData, e.api.last("sendMessage"))
}

func TestHandler_IdleTextPointsToMenu(t *testing.T) {
	e := newEnv(t)

	e.text(userID, "01.05.2025, @user, 18:00, 24ч, 500")
	assert.Equal(t, messages.MsgUseMenu, e.api.last("sendMessage"))
	recs, err := e.manager.List(context.Background(), ads.OrderInserted)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestHandler_AdminOnly(t *testing.T) {
	e := newEnv(t)
	rec, err := e.manager.Create(context.Background(), ads.Draft{
		Type: ads.TypeFixed, Username: "@a", Time: "18:00", Conditions: ads.Cond24h,
		PaymentStatus: ads.StatusPaid,
	})
	require.NoError(t, err)

	e.text(userID, messages.BtnAdminPanel)
	assert.Equal(t, messages.MsgNoAccess, e.api.last("sendMessage"))

	e.press(userID, payload(actDelete, rec.ID))
	_, err = e.manager.Get(context.Background(), rec.ID)
	require.NoError(t, err)

	e.press(adminID, payload(actDelete, rec.ID))
	_, err = e.manager.Get(context.Background(), rec.ID)
	require.ErrorIs(t, err, ads.ErrNotFound)
}

func TestHandler_EditFieldFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, err := ads.Parse("01.05.2025, @user, 18:00, 24ч, 500", "")
	require.NoError(t, err)
	rec, err := e.manager.Create(ctx, d)
	require.NoError(t, err)

	e.press(adminID, fieldPayload(ads.FieldConditions, rec.ID))
	s := e.session(t, adminID)
	assert.Equal(t, sessions.StateAwaitingEditValue, s.State)
	assert.Equal(t, ads.FieldConditions, s.Field)

	// Неверное значение оставляет сессию для повторной попытки.
	e.text(adminID, "месяц")
	assert.Equal(t, sessions.StateAwaitingEditValue, e.session(t, adminID).State)

	e.text(adminID, "НЕДЕЛЯ")
	assert.Equal(t, sessions.StateIdle, e.session(t, adminID).State)
	got, err := e.manager.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, ads.CondWeek, got.Conditions)
}

func TestHandler_ReachAndStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, err := ads.Parse("01.05.2025, @user, 18:00, 24ч, 1.5", "")
	require.NoError(t, err)
	rec, err := e.manager.Create(ctx, d)
	require.NoError(t, err)

	e.press(adminID, payload(actReach, rec.ID))
	assert.Equal(t, sessions.StateAwaitingReach, e.session(t, adminID).State)
	e.text(adminID, "2500")
	assert.Equal(t, sessions.StateIdle, e.session(t, adminID).State)

	e.press(adminID, payload(actStatus, rec.ID))

	got, err := e.manager.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Reach)
	assert.Equal(t, int64(2500), *got.Reach)
	assert.Equal(t, ads.StatusPaid, got.PaymentStatus)
}

func TestHandler_CancelClearsSession(t *testing.T) {
	e := newEnv(t)

	e.press(userID, cbTypeCPM)
	e.text(userID, "/cancel")
	assert.Equal(t, sessions.StateIdle, e.session(t, userID).State)
	assert.Equal(t, messages.MsgMainMenu, e.api.last("sendMessage"))
}

func TestHandler_GroupMembersKeepSeparateSessions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d, err := ads.Parse("01.05.2025, @user, 18:00, 24ч, 500", "")
	require.NoError(t, err)
	rec, err := e.manager.Create(ctx, d)
	require.NoError(t, err)

	// Сообщение другого участника не трогает правку администратора.
	e.press(adminID, fieldPayload(ads.FieldConditions, rec.ID))
	e.text(userID, "hello everyone")
	assert.Equal(t, messages.MsgUseMenu, e.api.last("sendMessage"))
	assert.Equal(t, sessions.StateAwaitingEditValue, e.session(t, adminID).State)

	e.text(adminID, "неделя")
	got, err := e.manager.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, ads.CondWeek, got.Conditions)
	assert.Equal(t, sessions.StateIdle, e.session(t, adminID).State)

	// Выбор типа одним участником не превращает чужой текст в заявку.
	e.press(userID, cbTypeCPM)
	e.text(adminID, "random chatter")
	assert.Equal(t, messages.MsgUseMenu, e.api.last("sendMessage"))
	s := e.session(t, userID)
	assert.Equal(t, sessions.StateAwaitingAdData, s.State)
	assert.Equal(t, ads.TypeCPM, s.PendingType)

	e.text(userID, "02.05.2025, @other, 12:00, 48ч, 40")
	recs, err := e.manager.List(ctx, ads.OrderInserted)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, ads.TypeCPM, recs[1].Type)
	assert.Equal(t, "@other", recs[1].Username)
	assert.Equal(t, sessions.StateIdle, e.session(t, userID).State)
}
