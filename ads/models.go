package ads

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout: формат даты размещения в тексте и в выводе.
const DateLayout = "02.01.2006"

type AdType string

const (
	TypeCPM   AdType = "CPM"
	TypeFixed AdType = "FIXED"
)

// Label возвращает подпись типа для пользователя.
func (t AdType) Label() string {
	if t == TypeFixed {
		return "ФИКС"
	}
	return string(t)
}

// ParseAdType принимает CPM, ФИКС и FIXED в любом регистре.
func ParseAdType(s string) (AdType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CPM":
		return TypeCPM, true
	case "ФИКС", "FIXED":
		return TypeFixed, true
	}
	return "", false
}

type PaymentStatus string

const (
	StatusPaid   PaymentStatus = "PAID"
	StatusUnpaid PaymentStatus = "UNPAID"
)

func (s PaymentStatus) Label() string {
	if s == StatusPaid {
		return "Оплачено"
	}
	return "Не оплачено"
}

// Toggled возвращает противоположный статус.
func (s PaymentStatus) Toggled() PaymentStatus {
	if s == StatusPaid {
		return StatusUnpaid
	}
	return StatusPaid
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid", "оплачено":
		return StatusPaid, true
	case "unpaid", "не оплачено":
		return StatusUnpaid, true
	}
	return "", false
}

// DefaultStatus: CPM ждёт оплаты, фикс оплачивается заранее.
func DefaultStatus(t AdType) PaymentStatus {
	if t == TypeCPM {
		return StatusUnpaid
	}
	return StatusPaid
}

// Condition: срок размещения из закрытого словаря.
type Condition string

const (
	Cond24h       Condition = "24ч"
	Cond48h       Condition = "48ч"
	Cond72h       Condition = "72ч"
	Cond3Days     Condition = "3дня"
	CondWeek      Condition = "неделя"
	CondUnlimited Condition = "бессрочно"
)

// Conditions в порядке показа.
var Conditions = []Condition{Cond24h, Cond48h, Cond72h, Cond3Days, CondWeek, CondUnlimited}

// ParseCondition сравнивает без учёта регистра и возвращает каноническое написание.
func ParseCondition(s string) (Condition, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Conditions {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Draft: проверенная запись до сохранения.
type Draft struct {
	Type          AdType
	Date          time.Time
	Username      string
	Time          string
	Conditions    Condition
	Value         decimal.Decimal
	PaymentStatus PaymentStatus
}

// Record: строка таблицы ads.
type Record struct {
	ID            int64
	Type          AdType
	Date          time.Time
	Username      string
	Time          string
	Conditions    Condition
	CPM           *decimal.Decimal
	Reach         *int64
	Profit        *decimal.Decimal
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
}

// Value: CPM для CPM-записей, иначе прибыль.
func (r *Record) Value() decimal.Decimal {
	if r.Type == TypeCPM && r.CPM != nil {
		return *r.CPM
	}
	if r.Profit != nil {
		return *r.Profit
	}
	return decimal.Zero
}

// NewRecord раскладывает значение черновика в cpm или profit.
func NewRecord(id int64, d Draft, createdAt time.Time) Record {
	r := Record{
		ID:            id,
		Type:          d.Type,
		Date:          d.Date,
		Username:      d.Username,
		Time:          d.Time,
		Conditions:    d.Conditions,
		PaymentStatus: d.PaymentStatus,
		CreatedAt:     createdAt,
	}
	v := d.Value
	if d.Type == TypeCPM {
		r.CPM = &v
	} else {
		r.Profit = &v
	}
	return r
}

// Order: порядок выдачи List.
type Order int

const (
	OrderInserted Order = iota
	OrderNewestFirst
)

// Field: изменяемое поле записи. Значение совпадает с именем колонки.
type Field string

const (
	FieldAdType        Field = "ad_type"
	FieldDate          Field = "date"
	FieldUsername      Field = "username"
	FieldTime          Field = "time"
	FieldConditions    Field = "conditions"
	FieldCPM           Field = "cpm"
	FieldProfit        Field = "profit"
	FieldPaymentStatus Field = "payment_status"
)

var mutableFields = map[Field]bool{
	FieldAdType:        true,
	FieldDate:          true,
	FieldUsername:      true,
	FieldTime:          true,
	FieldConditions:    true,
	FieldCPM:           true,
	FieldProfit:        true,
	FieldPaymentStatus: true,
}

// ParseField отвергает неизменяемые (id, created_at) и неизвестные поля.
func ParseField(name string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	if !mutableFields[f] {
		return "", invalidField(name)
	}
	return f, nil
}

// Label возвращает подпись поля в меню редактирования.
func (f Field) Label() string {
	switch f {
	case FieldAdType:
		return "тип"
	case FieldDate:
		return "дату"
	case FieldUsername:
		return "юзер"
	case FieldTime:
		return "время"
	case FieldConditions:
		return "условия"
	case FieldCPM:
		return "CPM"
	case FieldProfit:
		return "прибыль"
	case FieldPaymentStatus:
		return "статус"
	}
	return string(f)
}
