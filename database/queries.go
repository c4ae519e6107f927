package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_ads_bot/ads"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ============================================
// Записи
// ============================================

const adColumns = `id, ad_type, "date", username, "time", conditions,
		       cpm, reach, profit, payment_status, created_at`

// Изменяемые поля и имена их колонок.
var adFieldColumns = map[ads.Field]string{
	ads.FieldDate:          `"date"`,
	ads.FieldUsername:      `username`,
	ads.FieldTime:          `"time"`,
	ads.FieldConditions:    `conditions`,
	ads.FieldCPM:           `cpm`,
	ads.FieldProfit:        `profit`,
	ads.FieldPaymentStatus: `payment_status`,
}

func scanAd(row pgx.Row) (*ads.Record, error) {
	var (
		r                   ads.Record
		adType, cond, state string
	)
	err := row.Scan(
		&r.ID, &adType, &r.Date, &r.Username, &r.Time, &cond,
		&r.CPM, &r.Reach, &r.Profit, &state, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Type = ads.AdType(adType)
	r.Conditions = ads.Condition(cond)
	r.PaymentStatus = ads.PaymentStatus(state)
	return &r, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ads.ErrNotFound
	}
	return err
}

func (db *DB) Insert(ctx context.Context, d ads.Draft) (*ads.Record, error) {
	query := `
		INSERT INTO ads (ad_type, "date", username, "time", conditions, cpm, profit, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + adColumns

	var cpm, profit *decimal.Decimal
	v := d.Value
	if d.Type == ads.TypeCPM {
		cpm = &v
	} else {
		profit = &v
	}

	return scanAd(db.Pool.QueryRow(ctx, query,
		string(d.Type), d.Date, d.Username, d.Time, string(d.Conditions),
		cpm, profit, string(d.PaymentStatus),
	))
}

func (db *DB) Get(ctx context.Context, id int64) (*ads.Record, error) {
	query := `SELECT ` + adColumns + ` FROM ads WHERE id = $1`

	r, err := scanAd(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

func (db *DB) List(ctx context.Context, order ads.Order) ([]ads.Record, error) {
	orderBy := `id`
	if order == ads.OrderNewestFirst {
		orderBy = `created_at DESC, id DESC`
	}
	query := `SELECT ` + adColumns + ` FROM ads ORDER BY ` + orderBy

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ads.Record
	for rows.Next() {
		r, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Update меняет одну колонку. Смена ad_type переносит сумму в нужную колонку
// тем же запросом.
func (db *DB) Update(ctx context.Context, id int64, field ads.Field, value any) error {
	if field == ads.FieldAdType {
		t, ok := value.(ads.AdType)
		if !ok {
			return fmt.Errorf("unexpected %T for %s", value, field)
		}
		query := `
			UPDATE ads SET
				ad_type = $1::text,
				cpm     = CASE WHEN $1::text = 'CPM' THEN COALESCE(cpm, profit) END,
				profit  = CASE WHEN $1::text = 'CPM' THEN NULL ELSE COALESCE(profit, cpm) END
			WHERE id = $2`
		return db.exec(ctx, query, string(t), id)
	}

	column, ok := adFieldColumns[field]
	if !ok {
		return fmt.Errorf("%w: %q", ads.ErrInvalidField, field)
	}
	arg, err := columnValue(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	query := fmt.Sprintf(`UPDATE ads SET %s = $1 WHERE id = $2`, column)
	return db.exec(ctx, query, arg, id)
}

func columnValue(v any) (any, error) {
	switch v := v.(type) {
	case string, time.Time, decimal.Decimal:
		return v, nil
	case ads.Condition:
		return string(v), nil
	case ads.PaymentStatus:
		return string(v), nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

func (db *DB) TogglePaymentStatus(ctx context.Context, id int64) (ads.PaymentStatus, error) {
	query := `
		UPDATE ads
		SET payment_status = CASE WHEN payment_status = 'PAID' THEN 'UNPAID' ELSE 'PAID' END
		WHERE id = $1
		RETURNING payment_status`

	var s string
	if err := db.Pool.QueryRow(ctx, query, id).Scan(&s); err != nil {
		return "", notFound(err)
	}
	return ads.PaymentStatus(s), nil
}

func (db *DB) SetReach(ctx context.Context, id int64, reach int64) error {
	return db.exec(ctx, `UPDATE ads SET reach = $1 WHERE id = $2`, reach, id)
}

func (db *DB) Delete(ctx context.Context, id int64) error {
	return db.exec(ctx, `DELETE FROM ads WHERE id = $1`, id)
}

func (db *DB) exec(ctx context.Context, query string, args ...any) error {
	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ads.ErrNotFound
	}
	return nil
}
