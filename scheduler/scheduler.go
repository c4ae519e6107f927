// Package scheduler запускает разовые отложенные действия по id записи и
// периодические служебные задачи поверх robfig/cron.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const fireTimeout = 30 * time.Second

// Func вызывается один раз для каждого запланированного id.
type Func func(ctx context.Context, id int64)

type Scheduler struct {
	cron   *cron.Cron
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	fire    Func
	pending map[int64]cron.EntryID
}

func New(log *zap.Logger, loc *time.Location) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	log = log.Named("scheduler")
	cl := cronLogger{log.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[int64]cron.EntryID),
	}
}

// Handle задаёт обработчик созревших id. Вызывать до Start.
func (s *Scheduler) Handle(fn Func) {
	s.mu.Lock()
	s.fire = fn
	s.mu.Unlock()
}

// Schedule ставит одно действие для id не раньше fireAt. Повторный вызов для
// ещё ожидающего id игнорируется, прошедшее время срабатывает сразу.
func (s *Scheduler) Schedule(fireAt time.Time, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[id]; ok {
		s.log.Debug("already scheduled", zap.Int64("id", id))
		return
	}
	entryID := s.cron.Schedule(&once{at: fireAt}, cron.FuncJob(func() { s.run(id) }))
	s.pending[id] = entryID
}

func (s *Scheduler) run(id int64) {
	s.mu.Lock()
	entryID, ok := s.pending[id]
	delete(s.pending, id)
	fire := s.fire
	s.mu.Unlock()
	if ok {
		s.cron.Remove(entryID)
	}

	if fire == nil {
		s.log.Warn("no handler for deferred action", zap.Int64("id", id))
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, fireTimeout)
	defer cancel()
	fire(ctx, id)
}

// Every добавляет периодическую задачу, spec в синтаксисе cron или "@every 1m".
func (s *Scheduler) Every(spec string, job func(ctx context.Context)) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() { job(s.ctx) })
}

// Pending: сколько разовых действий ещё не сработало.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop ждёт текущие задачи, пока жив ctx. Ожидающие действия теряются.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	defer s.cancel()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped", zap.Int("dropped", s.Pending()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// once срабатывает один раз: в at или сразу, если at уже прошло. Дальше Next
// отдаёт нулевое время, и cron больше не запускает задачу.
type once struct {
	at time.Time

	mu   sync.Mutex
	last time.Time
}

func (o *once) Next(t time.Time) time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.last.IsZero() && !t.Before(o.last) {
		return time.Time{}
	}
	next := o.at
	if !next.After(t) {
		next = t
	}
	o.last = next
	return next
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
