package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ecomdash/internal/core"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		code  string
		cents int64
		want  string
	}{
		{"BRL", 0, "R$ 0,00"},
		{"BRL", 7219, "R$ 72,19"},
		{"BRL", 123456789, "R$ 1.234.567,89"},
		{"brl", 5, "R$ 0,05"},
		{"EUR", 100000, "€ 1.000,00"},
		{"GBP", 150, "GBP 1,50"},
		{"BRL", -2550, "-R$ 25,50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Currency(tt.code, core.Money{Cents: tt.cents}))
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, "0", Count(0))
	assert.Equal(t, "999", Count(999))
	assert.Equal(t, "99.280", Count(99280))
	assert.Equal(t, "1.234.567", Count(int64(1234567)))
}

func TestDecimalAndPercent(t *testing.T) {
	assert.Equal(t, "4,09", Decimal(4.0857))
	assert.Equal(t, "1.500,00", Decimal(1500))
	assert.Equal(t, "42,10%", Percent(0.421))
}
