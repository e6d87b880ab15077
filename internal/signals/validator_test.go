package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSignal(t *testing.T) {
	full := "BTC/USDT Long\nLeverage: Cross (20X)\nEntry Targets: 50000\nTake-Profit Targets:\n1) 51000\nStop Targets: 49000"

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"все маркеры", full, true},
		{"регистр не важен", "LEVERAGE: x ENTRY TARGETS: 1 TAKE-PROFIT TARGETS: 1) 2 STOP TARGETS: 3", true},
		{"пустой текст", "", false},
		{"без leverage", "Entry Targets: 1\nTake-Profit Targets:\nStop Targets: 2", false},
		{"без entry", "Leverage: (5X)\nTake-Profit Targets:\nStop Targets: 2", false},
		{"без take-profit", "Leverage: (5X)\nEntry Targets: 1\nStop Targets: 2", false},
		{"без stop", "Leverage: (5X)\nEntry Targets: 1\nTake-Profit Targets:", false},
		{"обычное сообщение", "BTC пробил 50k, ждём ретест", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSignal(tt.text))
		})
	}
}
