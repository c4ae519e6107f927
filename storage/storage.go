// Package storage хранит записи в памяти процесса. Используется, когда
// DATABASE_URL не задан, и в тестах.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go_ads_bot/ads"

	"github.com/shopspring/decimal"
)

type Storage struct {
	mu     sync.RWMutex
	nextID int64
	ads    map[int64]ads.Record
	now    func() time.Time
}

func New() *Storage {
	return &Storage{ads: make(map[int64]ads.Record), now: time.Now}
}

func (s *Storage) Insert(_ context.Context, d ads.Draft) (*ads.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec := ads.NewRecord(s.nextID, d, s.now())
	s.ads[rec.ID] = rec
	return clone(rec), nil
}

func (s *Storage) Get(_ context.Context, id int64) (*ads.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.ads[id]
	if !ok {
		return nil, ads.ErrNotFound
	}
	return clone(rec), nil
}

func (s *Storage) List(_ context.Context, order ads.Order) ([]ads.Record, error) {
	s.mu.RLock()
	out := make([]ads.Record, 0, len(s.ads))
	for _, rec := range s.ads {
		out = append(out, *clone(rec))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if order == ads.OrderNewestFirst {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Storage) Update(_ context.Context, id int64, field ads.Field, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.ads[id]
	if !ok {
		return ads.ErrNotFound
	}

	switch field {
	case ads.FieldAdType:
		var t ads.AdType
		if t, ok = value.(ads.AdType); ok && t != rec.Type {
			v := rec.Value()
			rec.CPM, rec.Profit = nil, nil
			if t == ads.TypeCPM {
				rec.CPM = &v
			} else {
				rec.Profit = &v
			}
			rec.Type = t
		}
	case ads.FieldDate:
		rec.Date, ok = value.(time.Time)
	case ads.FieldUsername:
		rec.Username, ok = value.(string)
	case ads.FieldTime:
		rec.Time, ok = value.(string)
	case ads.FieldConditions:
		rec.Conditions, ok = value.(ads.Condition)
	case ads.FieldCPM:
		var v decimal.Decimal
		v, ok = value.(decimal.Decimal)
		rec.CPM = &v
	case ads.FieldProfit:
		var v decimal.Decimal
		v, ok = value.(decimal.Decimal)
		rec.Profit = &v
	case ads.FieldPaymentStatus:
		rec.PaymentStatus, ok = value.(ads.PaymentStatus)
	default:
		return fmt.Errorf("%w: %q", ads.ErrInvalidField, field)
	}
	if !ok {
		return fmt.Errorf("unexpected %T for %s", value, field)
	}

	s.ads[id] = rec
	return nil
}

func (s *Storage) TogglePaymentStatus(_ context.Context, id int64) (ads.PaymentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.ads[id]
	if !ok {
		return "", ads.ErrNotFound
	}
	rec.PaymentStatus = rec.PaymentStatus.Toggled()
	s.ads[id] = rec
	return rec.PaymentStatus, nil
}

func (s *Storage) SetReach(_ context.Context, id int64, reach int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.ads[id]
	if !ok {
		return ads.ErrNotFound
	}
	rec.Reach = &reach
	s.ads[id] = rec
	return nil
}

func (s *Storage) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ads[id]; !ok {
		return ads.ErrNotFound
	}
	delete(s.ads, id)
	return nil
}

// clone копирует поля-указатели, чтобы снаружи нельзя было изменить хранимую запись.
func clone(r ads.Record) *ads.Record {
	if r.CPM != nil {
		v := *r.CPM
		r.CPM = &v
	}
	if r.Profit != nil {
		v := *r.Profit
		r.Profit = &v
	}
	if r.Reach != nil {
		v := *r.Reach
		r.Reach = &v
	}
	return &r
}
