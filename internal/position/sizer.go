package position

import "github.com/shopspring/decimal"

// Sizer считает объём позиции от риск-бюджета аккаунта.
// Чистая арифметика на decimal: двоичный float здесь даёт ошибки
// квантования в один шаг, что недопустимо.
type Sizer struct {
	balance decimal.Decimal // депозит, USDT
	riskPct decimal.Decimal // сколько процентов депозита уходит в маржу, (0, 100]
}

func NewSizer(balance, riskPct float64) Sizer {
	return Sizer{
		balance: decimal.NewFromFloat(balance),
		riskPct: decimal.NewFromFloat(riskPct),
	}
}

// Size: margin = balance * riskPct/100; volume = margin * leverage;
// qty = floorToStep(volume / entry, step).
//
// Округление всегда вниз — позиция не должна превышать риск-бюджет.
// Шаг квантования приходит от биржи: минимальный инкремент ордера
// (Bybit) или размер контракта в монетах (XT), алгоритм один и тот же.
func (s Sizer) Size(entry decimal.Decimal, leverage int, step decimal.Decimal) decimal.Decimal {
	margin := s.balance.Mul(s.riskPct).Div(decimal.NewFromInt(100))
	volume := margin.Mul(decimal.NewFromInt(int64(leverage)))
	raw := volume.Div(entry)
	return FloorToStep(raw, step)
}

// FloorToStep приводит объём вниз к ближайшему кратному шага.
func FloorToStep(qty, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return qty
	}
	return qty.Div(step).Floor().Mul(step)
}
