package models

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Signal — полностью распарсенный торговый сигнал из канала.
// Парсер либо заполняет все поля, либо не возвращает сигнал вовсе.
type Signal struct {
	Asset       string // "BTC/USDT"
	Direction   Direction
	Leverage    int
	Entry       decimal.Decimal
	TakeProfits []decimal.Decimal
	StopLoss    decimal.Decimal
}

// Key — ключ дедупликации: одна и та же инструкция часто репостится
// с другими TP/SL, поэтому их в ключ не включаем.
func (s Signal) Key() SignalKey {
	return SignalKey{
		Asset:     s.Asset,
		Direction: s.Direction,
		Entry:     s.Entry.String(),
	}
}

// EntrySide — сторона входного маркет-ордера.
func (s Signal) EntrySide() Side {
	if s.Direction == DirectionShort {
		return SideSell
	}
	return SideBuy
}

// TakeProfitSide — сторона закрывающих reduce-only ордеров.
func (s Signal) TakeProfitSide() Side {
	if s.Direction == DirectionShort {
		return SideBuy
	}
	return SideSell
}

func (s Signal) String() string {
	tps := lo.Map(s.TakeProfits, func(tp decimal.Decimal, _ int) string {
		return tp.String()
	})
	return fmt.Sprintf("Signal(%s %s %dx | entry: %s | TPs: [%s] | SL: %s)",
		s.Asset, s.Direction, s.Leverage, s.Entry, strings.Join(tps, ", "), s.StopLoss)
}

// SignalKey сравним (все поля — строки), используется только фильтром дедупликации.
type SignalKey struct {
	Asset     string
	Direction Direction
	Entry     string
}

// OrderLevel — пара цена/объём одного TP-ордера.
type OrderLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}
