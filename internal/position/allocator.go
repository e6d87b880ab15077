package position

import (
	"github.com/shopspring/decimal"

	"signal_bot/internal/models"
)

// Allocate распределяет общий объём по уровням take-profit.
// Каждый уровень, кроме первого, получает floorToStep(total/n, step);
// первый забирает весь остаток округления, поэтому сумма объёмов
// всегда в точности равна total. Порядок цен сохраняется — именно
// первый уровень привилегирован.
func Allocate(total decimal.Decimal, prices []decimal.Decimal, step decimal.Decimal) []models.OrderLevel {
	n := len(prices)
	if n == 0 {
		return nil
	}

	perLevel := FloorToStep(total.Div(decimal.NewFromInt(int64(n))), step)
	first := total.Sub(perLevel.Mul(decimal.NewFromInt(int64(n - 1))))

	levels := make([]models.OrderLevel, n)
	for i, price := range prices {
		qty := perLevel
		if i == 0 {
			qty = first
		}
		levels[i] = models.OrderLevel{Price: price, Qty: qty}
	}
	return levels
}
