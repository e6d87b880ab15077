package position

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prices(ss ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(ss))
	for i, s := range ss {
		out[i] = dec(s)
	}
	return out
}

func TestAllocateRemainderToFirst(t *testing.T) {
	// 10 на 3 уровня шагом 1: perLevel = 3, первый забирает остаток -> [4 3 3]
	levels := Allocate(dec("10"), prices("101", "102", "103"), dec("1"))
	require.Len(t, levels, 3)

	assert.True(t, levels[0].Qty.Equal(dec("4")))
	assert.True(t, levels[1].Qty.Equal(dec("3")))
	assert.True(t, levels[2].Qty.Equal(dec("3")))

	// порядок цен сохранён
	assert.True(t, levels[0].Price.Equal(dec("101")))
	assert.True(t, levels[2].Price.Equal(dec("103")))
}

func TestAllocateExactSum(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		step  string
	}{
		{"не делится нацело", "10", 3, "1"},
		{"дробный шаг", "0.9", 4, "0.01"},
		{"мелкий шаг", "1.234567", 7, "0.0001"},
		{"делится ровно", "9", 3, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := make([]decimal.Decimal, tt.n)
			for i := range ps {
				ps[i] = decimal.NewFromInt(int64(100 + i))
			}

			levels := Allocate(dec(tt.total), ps, dec(tt.step))
			require.Len(t, levels, tt.n)

			total := decimal.Zero
			for _, l := range levels {
				total = total.Add(l.Qty)
			}
			// сумма объёмов равна исходному объёму в точности
			assert.True(t, total.Equal(dec(tt.total)), "сумма %s, ожидалось %s", total, tt.total)
		})
	}
}

func TestAllocateSingleLevel(t *testing.T) {
	levels := Allocate(dec("7.77"), prices("42"), dec("0.01"))
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Qty.Equal(dec("7.77")))
}

func TestAllocateNoPrices(t *testing.T) {
	assert.Nil(t, Allocate(dec("1"), nil, dec("1")))
}
