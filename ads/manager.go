package ads

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMaturityDelay: сдвиг отложенного действия от даты и времени размещения.
// От условий размещения (48ч, неделя...) сдвиг не зависит.
const DefaultMaturityDelay = 24 * time.Hour

// Store хранит записи. Для отсутствующего id реализации возвращают ErrNotFound.
// Update с FieldAdType переносит сумму между cpm и profit одной операцией.
type Store interface {
	Insert(ctx context.Context, d Draft) (*Record, error)
	Get(ctx context.Context, id int64) (*Record, error)
	List(ctx context.Context, order Order) ([]Record, error)
	Update(ctx context.Context, id int64, field Field, value any) error
	TogglePaymentStatus(ctx context.Context, id int64) (PaymentStatus, error)
	SetReach(ctx context.Context, id int64, reach int64) error
	Delete(ctx context.Context, id int64) error
}

// Scheduler вызывает Manager.OnMatured(id) не раньше fireAt.
type Scheduler interface {
	Schedule(fireAt time.Time, id int64)
}

// Recorder получает счётчики событий записи.
type Recorder interface {
	RecordCreated(t AdType)
	RecordMatured(outcome string)
}

// MaturedFunc: действие над созревшей CPM-записью.
type MaturedFunc func(ctx context.Context, r *Record) error

type nopRecorder struct{}

func (nopRecorder) RecordCreated(AdType)  {}
func (nopRecorder) RecordMatured(string) {}

type Manager struct {
	store     Store
	scheduler Scheduler
	log       *zap.Logger
	delay     time.Duration
	loc       *time.Location
	now       func() time.Time
	onMatured MaturedFunc
	metrics   Recorder
}

type Option func(*Manager)

func WithMaturityDelay(d time.Duration) Option {
	return func(m *Manager) { m.delay = d }
}

// WithLocation задаёт зону, в которой читаются дата и время размещения.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) { m.loc = loc }
}

func WithMaturedHook(fn MaturedFunc) Option {
	return func(m *Manager) { m.onMatured = fn }
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.metrics = r }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store Store, scheduler Scheduler, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		store:     store,
		scheduler: scheduler,
		log:       log.Named("ads"),
		delay:     DefaultMaturityDelay,
		loc:       time.UTC,
		now:       time.Now,
		metrics:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create сохраняет черновик и для CPM ставит ровно одно отложенное действие.
// Если вставка не удалась, ничего не планируется.
func (m *Manager) Create(ctx context.Context, d Draft) (*Record, error) {
	rec, err := m.store.Insert(ctx, d)
	if err != nil {
		m.log.Error("insert ad", zap.String("username", d.Username), zap.Error(err))
		return nil, storageErr("insert", err)
	}
	m.metrics.RecordCreated(rec.Type)
	m.log.Info("ad created",
		zap.Int64("id", rec.ID),
		zap.String("type", string(rec.Type)),
		zap.String("username", rec.Username),
	)

	if rec.Type == TypeCPM {
		m.schedule(rec)
	}
	return rec, nil
}

func (m *Manager) schedule(rec *Record) bool {
	at, err := m.MaturityTime(rec)
	if err != nil {
		m.log.Warn("maturity not scheduled", zap.Int64("id", rec.ID), zap.Error(err))
		return false
	}
	m.scheduler.Schedule(at, rec.ID)
	m.log.Info("maturity scheduled", zap.Int64("id", rec.ID), zap.Time("fire_at", at))
	return true
}

// MaturityTime: дата и время размещения плюс задержка. Время хранится свободным
// текстом, всё кроме ЧЧ:ММ даёт ошибку.
func (m *Manager) MaturityTime(rec *Record) (time.Time, error) {
	clock, err := time.Parse("15:04", strings.TrimSpace(rec.Time))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", rec.Time, err)
	}
	y, mo, d := rec.Date.Date()
	at := time.Date(y, mo, d, clock.Hour(), clock.Minute(), 0, 0, m.loc)
	return at.Add(m.delay), nil
}

func (m *Manager) Get(ctx context.Context, id int64) (*Record, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Error("get ad", zap.Int64("id", id), zap.Error(err))
		}
		return nil, storageErr("get", err)
	}
	return rec, nil
}

func (m *Manager) List(ctx context.Context, order Order) ([]Record, error) {
	recs, err := m.store.List(ctx, order)
	if err != nil {
		m.log.Error("list ads", zap.Error(err))
		return nil, storageErr("list", err)
	}
	return recs, nil
}

// UpdateField меняет одно поле по его текстовому значению.
func (m *Manager) UpdateField(ctx context.Context, id int64, name, raw string) error {
	f, err := ParseField(name)
	if err != nil {
		return err
	}
	rec, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	value, err := fieldValue(rec, f, raw)
	if err != nil {
		return err
	}
	if err := m.store.Update(ctx, id, f, value); err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Error("update ad", zap.Int64("id", id), zap.String("field", string(f)), zap.Error(err))
		}
		return storageErr("update", err)
	}
	m.log.Info("ad updated", zap.Int64("id", id), zap.String("field", string(f)))
	return nil
}

func fieldValue(rec *Record, f Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f {
	case FieldAdType:
		t, ok := ParseAdType(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAdType, raw)
		}
		return t, nil
	case FieldDate:
		return ParseDate(raw)
	case FieldUsername, FieldTime:
		if raw == "" {
			return nil, fmt.Errorf("%w: empty %s", ErrInvalidValue, f)
		}
		return raw, nil
	case FieldConditions:
		return parseConditions(raw)
	case FieldCPM:
		if rec.Type != TypeCPM {
			return nil, fmt.Errorf("%w: cpm on %s record", ErrInvalidField, rec.Type)
		}
		return ParseAmount(raw)
	case FieldProfit:
		if rec.Type != TypeFixed {
			return nil, fmt.Errorf("%w: profit on %s record", ErrInvalidField, rec.Type)
		}
		return ParseAmount(raw)
	case FieldPaymentStatus:
		s, ok := ParsePaymentStatus(raw)
		if !ok {
			return nil, fmt.Errorf("%w: payment status %q", ErrInvalidValue, raw)
		}
		return s, nil
	}
	return nil, invalidField(string(f))
}

// TogglePaymentStatus переключает PAID и UNPAID и возвращает новый статус.
func (m *Manager) TogglePaymentStatus(ctx context.Context, id int64) (PaymentStatus, error) {
	s, err := m.store.TogglePaymentStatus(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Error("toggle payment status", zap.Int64("id", id), zap.Error(err))
		}
		return "", storageErr("toggle status", err)
	}
	m.log.Info("payment status toggled", zap.Int64("id", id), zap.String("status", string(s)))
	return s, nil
}

// SetReach сохраняет охват размещения.
func (m *Manager) SetReach(ctx context.Context, id int64, raw string) error {
	reach, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || reach < 0 {
		return fmt.Errorf("%w: reach %q", ErrInvalidValue, raw)
	}
	if err := m.store.SetReach(ctx, id, reach); err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Error("set reach", zap.Int64("id", id), zap.Error(err))
		}
		return storageErr("set reach", err)
	}
	return nil
}

// Delete удаляет запись. Отложенное действие не снимается и при срабатывании
// ничего не найдёт.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.store.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Error("delete ad", zap.Int64("id", id), zap.Error(err))
		}
		return storageErr("delete", err)
	}
	m.log.Info("ad deleted", zap.Int64("id", id))
	return nil
}

// OnMatured выполняет отложенное действие для id. Отсутствующая запись
// пропускается, ошибки хука только пишутся в лог.
func (m *Manager) OnMatured(ctx context.Context, id int64) {
	rec, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		m.metrics.RecordMatured("missing")
		m.log.Info("matured ad no longer exists", zap.Int64("id", id))
		return
	}
	if err != nil {
		m.metrics.RecordMatured("error")
		m.log.Error("load matured ad", zap.Int64("id", id), zap.Error(err))
		return
	}

	m.log.Info("ad matured", zap.Int64("id", id), zap.String("username", rec.Username))
	if m.onMatured != nil {
		if err := m.onMatured(ctx, rec); err != nil {
			m.metrics.RecordMatured("error")
			m.log.Error("matured hook", zap.Int64("id", id), zap.Error(err))
			return
		}
	}
	m.metrics.RecordMatured("fired")
}

// Rearm после рестарта заново ставит таймеры CPM-записей, срок которых
// ещё не наступил.
func (m *Manager) Rearm(ctx context.Context) (int, error) {
	recs, err := m.List(ctx, OrderInserted)
	if err != nil {
		return 0, err
	}
	now := m.now()
	n := 0
	for i := range recs {
		rec := &recs[i]
		if rec.Type != TypeCPM {
			continue
		}
		at, err := m.MaturityTime(rec)
		if err != nil || !at.After(now) {
			continue
		}
		m.scheduler.Schedule(at, rec.ID)
		n++
	}
	m.log.Info("maturity timers rearmed", zap.Int("count", n))
	return n, nil
}

// Stats считает сводку по всем записям.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	recs, err := m.List(ctx, OrderInserted)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(recs), nil
}
