package exchange

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signal_bot/internal/models"
)

// ErrNotTradeable — инструмент не торгуется на бирже
// (неизвестный, делистнутый или закрытый для API).
var ErrNotTradeable = errors.New("инструмент не торгуется")

// Gateway — граница биржевого слоя. Процессор сигналов работает только
// через этот интерфейс и не видит конвертов конкретных бирж.
type Gateway interface {
	// ResolveInstrument подтверждает, что актив торгуется, и возвращает
	// биржевой символ вместе с шагом квантования объёма.
	ResolveInstrument(ctx context.Context, asset string) (models.Instrument, error)

	// EnsureLeverage выставляет плечо. Ответ "плечо уже такое" —
	// идемпотентный успех, не ошибка.
	EnsureLeverage(ctx context.Context, symbol string, leverage int) error

	// PlaceMarketWithStopLoss открывает позицию маркет-ордером
	// с привязанным стоп-лоссом. Возвращает orderId.
	PlaceMarketWithStopLoss(ctx context.Context, symbol string, side models.Side,
		qty decimal.Decimal, stopLoss decimal.Decimal, posSide models.Direction) (string, error)

	// PlaceReduceOnlyLimits выставляет лимитные reduce-only ордера по
	// уровням TP. Частичный успех допустим: неудавшиеся ордера логируются
	// и пропускаются, возвращаются id успешных.
	PlaceReduceOnlyLimits(ctx context.Context, symbol string, side models.Side,
		levels []models.OrderLevel, posSide models.Direction) ([]string, error)
}

// Creds — ключи API выбранной биржи.
type Creds struct {
	APIKey    string
	APISecret string
}

// New собирает клиент по имени биржи из конфига.
func New(ctx context.Context, name string, creds Creds, log *zap.Logger) (Gateway, error) {
	switch name {
	case "bybit":
		return NewBybit(creds, log), nil
	case "xt":
		xt := NewXT(creds, log)
		// кеш активов нужен до первого сигнала
		if err := xt.symbols.Load(ctx); err != nil {
			return nil, errors.Wrap(err, "загрузка кеша активов XT")
		}
		return xt, nil
	}
	return nil, fmt.Errorf("неизвестная биржа: %q", name)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
