package position

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSizeExact(t *testing.T) {
	// margin = 1000 * 10% = 100; volume = 100 * 5 = 500; qty = 500/100 = 5
	s := NewSizer(1000, 10)
	qty := s.Size(dec("100"), 5, dec("0.001"))
	assert.True(t, qty.Equal(dec("5")), "получено %s", qty)
}

func TestSizeTruncates(t *testing.T) {
	// volume = 300; raw = 300/333.33 = 0.90000900009... -> вниз до 0.01
	s := NewSizer(1000, 10)
	qty := s.Size(dec("333.33"), 3, dec("0.01"))

	assert.True(t, qty.Equal(dec("0.9")), "получено %s", qty)

	raw := dec("300").Div(dec("333.33"))
	assert.True(t, qty.LessThanOrEqual(raw), "объём никогда не округляется вверх")
}

func TestSizeWholeContracts(t *testing.T) {
	// шаг в целый контракт (XT): margin=50, volume=500, raw=500/3=166.66... -> 166
	s := NewSizer(500, 10)
	qty := s.Size(dec("3"), 10, dec("1"))
	assert.True(t, qty.Equal(dec("166")), "получено %s", qty)
	assert.True(t, qty.IsInteger())
}

func TestFloorToStep(t *testing.T) {
	tests := []struct {
		qty, step, want string
	}{
		{"5.5555", "0.001", "5.555"},
		{"5.5555", "0.1", "5.5"},
		{"5.5555", "1", "5"},
		{"5", "0.001", "5"},       // уже кратно шагу
		{"0.0009", "0.001", "0"},  // меньше шага
		{"7.3", "0", "7.3"},       // нулевой шаг не трогает объём
	}
	for _, tt := range tests {
		got := FloorToStep(dec(tt.qty), dec(tt.step))
		assert.True(t, got.Equal(dec(tt.want)), "floor(%s, %s) = %s, ожидалось %s", tt.qty, tt.step, got, tt.want)
	}
}
