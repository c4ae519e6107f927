package ads

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// InputFormat показывается пользователю как подсказка.
const InputFormat = "ДД.ММ.ГГГГ, @юзер, время, условия, CPM/сумма"

// День и месяц допускаются одной или двумя цифрами.
const dateParseLayout = "2.1.2006"

// Parse превращает строку пользователя в проверенный черновик. Для пяти полей
// тип берётся из hint, а без него по наличию точки в значении: целая ставка
// CPM ("50") считается фиксом. Явный тип в шестом поле главнее hint.
func Parse(raw string, hint AdType) (Draft, error) {
	parts := splitFields(raw)

	var (
		date, username, tm, cond, typ, value string
		adType                               AdType
	)
	switch len(parts) {
	case 5:
		date, username, tm, cond, value = parts[0], parts[1], parts[2], parts[3], parts[4]
		switch {
		case hint != "":
			adType = hint
		case strings.Contains(value, "."):
			adType = TypeCPM
		default:
			adType = TypeFixed
		}
	case 6:
		date, username, tm, cond, typ, value = parts[0], parts[1], parts[2], parts[3], parts[4], parts[5]
		t, ok := ParseAdType(typ)
		if !ok {
			return Draft{}, fmt.Errorf("%w: %q", ErrInvalidAdType, typ)
		}
		adType = t
	default:
		return Draft{}, fmt.Errorf("%w: got %d fields, want 5 or 6", ErrMalformedInput, len(parts))
	}

	if adType != TypeCPM && adType != TypeFixed {
		return Draft{}, fmt.Errorf("%w: %q", ErrInvalidAdType, adType)
	}

	c, err := parseConditions(cond)
	if err != nil {
		return Draft{}, err
	}
	d, err := ParseDate(date)
	if err != nil {
		return Draft{}, err
	}
	v, err := ParseAmount(value)
	if err != nil {
		return Draft{}, err
	}

	return Draft{
		Type:          adType,
		Date:          d,
		Username:      username,
		Time:          tm,
		Conditions:    c,
		Value:         v,
		PaymentStatus: DefaultStatus(adType),
	}, nil
}

// splitFields делит строку по запятым, обрезает поля и схлопывает пробелы внутри.
// Хвост "123,45" без пробелов вокруг последней запятой даёт два лишних поля из
// цифр; их склеивают обратно в "123.45". Запятая с пробелом остаётся разделителем.
func splitFields(raw string) []string {
	chunks := strings.Split(raw, ",")
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, strings.Join(strings.Fields(c), " "))
	}

	n := len(parts)
	if (n == 6 || n == 7) && decimalComma(chunks[n-2], chunks[n-1]) {
		parts = append(parts[:n-2], parts[n-2]+"."+parts[n-1])
	}
	return parts
}

func decimalComma(whole, frac string) bool {
	return isDigits(strings.TrimLeftFunc(whole, unicode.IsSpace)) &&
		isDigits(strings.TrimRightFunc(frac, unicode.IsSpace))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseConditions(s string) (Condition, error) {
	c, ok := ParseCondition(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidConditions, s)
	}
	return c, nil
}

// ParseDate разбирает ДД.ММ.ГГГГ и отвергает несуществующие даты.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateParseLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ParseAmount принимает "." и "," как десятичный разделитель.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	if v.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: negative amount %s", ErrInvalidValue, s)
	}
	return v, nil
}
