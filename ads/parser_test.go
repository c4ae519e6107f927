package ads_test

import (
	"testing"
	"time"

	"go_ads_bot/ads"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParse_InfersTypeFromValueShape(t *testing.T) {
	d, err := ads.Parse("01.05.2025, @user, 18:00, 24ч, 150.5", "")
	require.NoError(t, err)
	assert.Equal(t, ads.TypeCPM, d.Type)
	assert.True(t, dec("150.5").Equal(d.Value))
	assert.Equal(t, ads.StatusUnpaid, d.PaymentStatus)

	d, err = ads.Parse("01.05.2025, @user, 18:00, 24ч, 500", "")
	require.NoError(t, err)
	assert.Equal(t, ads.TypeFixed, d.Type)
	assert.True(t, dec("500").Equal(d.Value))
	assert.Equal(t, ads.StatusPaid, d.PaymentStatus)
}

// Целая ставка CPM без типа считается фиксом.
func TestParse_IntegerCPMWithoutTypeIsFixed(t *testing.T) {
	d, err := ads.Parse("01.05.2025, @user, 18:00, 24ч, 50", "")
	require.NoError(t, err)
	assert.Equal(t, ads.TypeFixed, d.Type)
}

func TestParse_HintOverridesInference(t *testing.T) {
	d, err := ads.Parse("01.05.2025, @user, 18:00, 24ч, 50", ads.TypeCPM)
	require.NoError(t, err)
	assert.Equal(t, ads.TypeCPM, d.Type)
	assert.Equal(t, ads.StatusUnpaid, d.PaymentStatus)

	d, err = ads.Parse("01.05.2025, @user, 18:00, 24ч, 150.5", ads.TypeFixed)
	require.NoError(t, err)
	assert.Equal(t, ads.TypeFixed, d.Type)
}

func TestParse_ExplicitTypeWins(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		hint  ads.AdType
		want  ads.AdType
		value string
	}{
		{"cpm integer", "01.05.2025, @user, 18:00, 24ч, CPM, 500", "", ads.TypeCPM, "500"},
		{"lowercase cpm", "01.05.2025, @user, 18:00, 24ч, cpm, 500", "", ads.TypeCPM, "500"},
		{"fix with point", "01.05.2025, @user, 18:00, 24ч, ФИКС, 150.5", "", ads.TypeFixed, "150.5"},
		{"fixed alias", "01.05.2025, @user, 18:00, 24ч, fixed, 10", "", ads.TypeFixed, "10"},
		{"over hint", "01.05.2025, @user, 18:00, 24ч, ФИКС, 10", ads.TypeCPM, ads.TypeFixed, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ads.Parse(tt.raw, tt.hint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Type)
			assert.True(t, dec(tt.value).Equal(d.Value), "value %s", d.Value)
		})
	}
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"too few fields", "01.05.2025, @user, 18:00, 24ч", ads.ErrMalformedInput},
		{"too many fields", "01.05.2025, @user, 18:00, 24ч, CPM, 1, x", ads.ErrMalformedInput},
		{"empty", "", ads.ErrMalformedInput},
		{"unknown type", "01.05.2025, @user, 18:00, 24ч, BANNER, 100", ads.ErrInvalidAdType},
		{"unknown condition", "01.05.2025, @user, 18:00, месяц, 100", ads.ErrInvalidConditions},
		{"bad month", "31.13.2025, @user, 18:00, 24ч, 100", ads.ErrInvalidDate},
		{"feb 30", "30.02.2025, @user, 18:00, 24ч, 100", ads.ErrInvalidDate},
		{"iso date", "2025-05-01, @user, 18:00, 24ч, 100", ads.ErrInvalidDate},
		{"not a number", "01.05.2025, @user, 18:00, 24ч, сто", ads.ErrInvalidValue},
		{"negative", "01.05.2025, @user, 18:00, 24ч, -5", ads.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ads.Parse(tt.raw, "")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

// Тип проверяется раньше условий, условия раньше даты.
func TestParse_ValidationOrder(t *testing.T) {
	_, err := ads.Parse("31.13.2025, @user, 18:00, месяц, BANNER, x", "")
	require.ErrorIs(t, err, ads.ErrInvalidAdType)

	_, err = ads.Parse("31.13.2025, @user, 18:00, месяц, x", "")
	require.ErrorIs(t, err, ads.ErrInvalidConditions)

	_, err = ads.Parse("31.13.2025, @user, 18:00, 24ч, x", "")
	require.ErrorIs(t, err, ads.ErrInvalidDate)
}

func TestParse_ConditionsCaseInsensitive(t *testing.T) {
	d, err := ads.Parse("01.05.2025, @user, 18:00, НЕДЕЛЯ, 100", "")
	require.NoError(t, err)
	assert.Equal(t, ads.CondWeek, d.Conditions)

	d, err = ads.Parse("01.05.2025, @user, 18:00, Бессрочно, 100", "")
	require.NoError(t, err)
	assert.Equal(t, ads.CondUnlimited, d.Conditions)
}

func TestParse_Dates(t *testing.T) {
	d, err := ads.Parse("31.12.2025, @user, 18:00, 24ч, 100", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), d.Date)

	d, err = ads.Parse("1.5.2025, @user, 18:00, 24ч, 100", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), d.Date)
}

func TestParse_DecimalComma(t *testing.T) {
	d, err := ads.Parse("01.05.2025, @user, 18:00, 24ч, 150,5", "")
	require.NoError(t, err)
	assert.Equal(t, ads.TypeCPM, d.Type)
	assert.True(t, dec("150.5").Equal(d.Value))

	d, err = ads.Parse("01.05.2025, @user, 18:00, 24ч, ФИКС, 99,90", "")
	require.NoError(t, err)
	assert.Equal(t, ads.TypeFixed, d.Type)
	assert.True(t, dec("99.9").Equal(d.Value))
}

// Запятая с пробелом всегда разделяет поля.
func TestParse_CommaSpaceIsNotDecimal(t *testing.T) {
	_, err := ads.Parse("01.05.2025, @user, 18:00, 24ч, 150, 5", "")
	require.ErrorIs(t, err, ads.ErrInvalidAdType)

	_, err = ads.Parse("01.05.2025, @user, 18:00, 24ч, 150 ,5", "")
	require.ErrorIs(t, err, ads.ErrInvalidAdType)

	_, err = ads.Parse("01.05.2025, @user, 18:00, 24ч, CPM, 150, 5", "")
	require.ErrorIs(t, err, ads.ErrMalformedInput)

	d, err := ads.Parse("01.05.2025, @user, 18:00, 24ч, CPM, 150,5 ", "")
	require.NoError(t, err)
	assert.True(t, dec("150.5").Equal(d.Value))
}

func TestParse_SloppySpacing(t *testing.T) {
	d, err := ads.Parse("01.05.2025,@user,18:00,  24ч ,   150.5", "")
	require.NoError(t, err)
	assert.Equal(t, "@user", d.Username)
	assert.Equal(t, "18:00", d.Time)
	assert.Equal(t, ads.Cond24h, d.Conditions)

	d, err = ads.Parse("01.05.2025, @user,  вечером   в  18:00 , 48ч, 100", "")
	require.NoError(t, err)
	assert.Equal(t, "вечером в 18:00", d.Time)
}

func TestParseAmount(t *testing.T) {
	v, err := ads.ParseAmount(" 12,75 ")
	require.NoError(t, err)
	assert.True(t, dec("12.75").Equal(v))

	_, err = ads.ParseAmount("1.2.3")
	require.ErrorIs(t, err, ads.ErrInvalidValue)
}

func TestParseField(t *testing.T) {
	f, err := ads.ParseField(" Payment_Status ")
	require.NoError(t, err)
	assert.Equal(t, ads.FieldPaymentStatus, f)

	for _, name := range []string{"id", "created_at", "reach", "nope", ""} {
		_, err := ads.ParseField(name)
		assert.ErrorIs(t, err, ads.ErrInvalidField, name)
	}
}

func TestReason(t *testing.T) {
	_, err := ads.Parse("x", "")
	assert.Equal(t, "malformed_input", ads.Reason(err))
	assert.Equal(t, "ok", ads.Reason(nil))
	assert.Equal(t, "not_found", ads.Reason(ads.ErrNotFound))
}
