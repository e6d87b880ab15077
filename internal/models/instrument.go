package models

import "github.com/shopspring/decimal"

// Instrument — метаданные инструмента с биржи.
type Instrument struct {
	Symbol string // биржевой идентификатор: "BTCUSDT" (Bybit), "btc_usdt" (XT)

	// Step — шаг квантования объёма: минимальный инкремент ордера (Bybit)
	// или 1 контракт (XT).
	Step decimal.Decimal

	// Contracts — объём выражается в целых контрактах, а не в монетах.
	Contracts bool
}

// Channel — канал-источник сигналов из configs/channels.yaml.
type Channel struct {
	ChatID  int64  `yaml:"chat_id"`
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}
