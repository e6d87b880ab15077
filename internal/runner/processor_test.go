package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"signal_bot/internal/exchange"
	"signal_bot/internal/models"
	"signal_bot/internal/position"
	"signal_bot/internal/signals"
)

type placedOrder struct {
	symbol string
	side   models.Side
	qty    decimal.Decimal
	stop   decimal.Decimal
}

// fakeGateway считает вызовы и позволяет заваливать отдельные активы.
type fakeGateway struct {
	mu       sync.Mutex
	failOn   map[string]error
	entries  []placedOrder
	tpBySym  map[string][]models.OrderLevel
	leverage map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		failOn:   map[string]error{},
		tpBySym:  map[string][]models.OrderLevel{},
		leverage: map[string]int{},
	}
}

func (f *fakeGateway) ResolveInstrument(_ context.Context, asset string) (models.Instrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[asset]; err != nil {
		return models.Instrument{}, err
	}
	return models.Instrument{Symbol: asset, Step: decimal.RequireFromString("0.001")}, nil
}

func (f *fakeGateway) EnsureLeverage(_ context.Context, symbol string, leverage int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leverage[symbol] = leverage
	return nil
}

func (f *fakeGateway) PlaceMarketWithStopLoss(_ context.Context, symbol string, side models.Side,
	qty decimal.Decimal, stopLoss decimal.Decimal, _ models.Direction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, placedOrder{symbol: symbol, side: side, qty: qty, stop: stopLoss})
	return "order-1", nil
}

func (f *fakeGateway) PlaceReduceOnlyLimits(_ context.Context, symbol string, _ models.Side,
	levels []models.OrderLevel, _ models.Direction) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tpBySym[symbol] = levels
	ids := make([]string, len(levels))
	for i := range ids {
		ids[i] = "tp"
	}
	return ids, nil
}

func procSignal(asset string) models.Signal {
	return models.Signal{
		Asset:     asset,
		Direction: models.DirectionLong,
		Leverage:  5,
		Entry:     decimal.RequireFromString("100"),
		StopLoss:  decimal.RequireFromString("90"),
		TakeProfits: []decimal.Decimal{
			decimal.RequireFromString("110"),
			decimal.RequireFromString("120"),
			decimal.RequireFromString("130"),
		},
	}
}

func newTestProcessor(q *signals.Queue, gw exchange.Gateway) *Processor {
	return NewProcessor(zap.NewNop(), opentracing.NoopTracer{}, q, gw, position.NewSizer(1000, 10))
}

func TestProcessPlacesEntryAndTPs(t *testing.T) {
	gw := newFakeGateway()
	q := signals.NewQueue()
	p := newTestProcessor(q, gw)

	err := p.process(context.Background(), procSignal("BTC/USDT"))
	require.NoError(t, err)

	require.Len(t, gw.entries, 1)
	entry := gw.entries[0]
	assert.Equal(t, "BTC/USDT", entry.symbol)
	assert.Equal(t, models.SideBuy, entry.side)
	// 1000 * 10% * 5 / 100 = 5
	assert.True(t, entry.qty.Equal(decimal.RequireFromString("5")))
	assert.True(t, entry.stop.Equal(decimal.RequireFromString("90")))

	assert.Equal(t, 5, gw.leverage["BTC/USDT"])

	levels := gw.tpBySym["BTC/USDT"]
	require.Len(t, levels, 3)
	total := decimal.Zero
	for _, l := range levels {
		total = total.Add(l.Qty)
	}
	assert.True(t, total.Equal(entry.qty), "сумма TP-объёмов равна объёму входа")
}

func TestRunErrorDoesNotStopLoop(t *testing.T) {
	gw := newFakeGateway()
	gw.failOn["ETH/USDT"] = errors.New("биржа недоступна")

	q := signals.NewQueue()
	q.Enqueue(procSignal("BTC/USDT"))
	q.Enqueue(procSignal("ETH/USDT"))
	q.Enqueue(procSignal("SOL/USDT"))

	p := newTestProcessor(q, gw)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return len(gw.entries) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("процессор не остановился после отмены контекста")
	}

	// первый и третий сигналы дошли до биржи, второй только залогирован
	assert.Equal(t, "BTC/USDT", gw.entries[0].symbol)
	assert.Equal(t, "SOL/USDT", gw.entries[1].symbol)
	assert.Empty(t, gw.tpBySym["ETH/USDT"])
}

func TestRunSkipsNotTradeable(t *testing.T) {
	gw := newFakeGateway()
	gw.failOn["OLD/USDT"] = errors.Wrap(exchange.ErrNotTradeable, "делистнут")

	q := signals.NewQueue()
	q.Enqueue(procSignal("OLD/USDT"))
	q.Enqueue(procSignal("BTC/USDT"))

	p := newTestProcessor(q, gw)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	assert.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return len(gw.entries) == 1 && gw.entries[0].symbol == "BTC/USDT"
	}, time.Second, 5*time.Millisecond)
}

// shutdownGateway рвёт корневой контекст посреди выставления входа и,
// как любой клиент на NewRequestWithContext, отдаёт ошибку отменённого
// контекста из последующих вызовов.
type shutdownGateway struct {
	*fakeGateway
	cancel context.CancelFunc
}

func (g *shutdownGateway) PlaceMarketWithStopLoss(ctx context.Context, symbol string, side models.Side,
	qty decimal.Decimal, stopLoss decimal.Decimal, posSide models.Direction) (string, error) {
	g.cancel()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.fakeGateway.PlaceMarketWithStopLoss(ctx, symbol, side, qty, stopLoss, posSide)
}

func (g *shutdownGateway) PlaceReduceOnlyLimits(ctx context.Context, symbol string, side models.Side,
	levels []models.OrderLevel, posSide models.Direction) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.fakeGateway.PlaceReduceOnlyLimits(ctx, symbol, side, levels, posSide)
}

// Остановка посреди сигнала не должна обрывать выставление ордеров:
// вход и все TP доводятся до конца, цикл завершается перед следующим
// сигналом.
func TestRunFinishesInFlightSignalOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := newFakeGateway()
	gw := &shutdownGateway{fakeGateway: base, cancel: cancel}

	q := signals.NewQueue()
	q.Enqueue(procSignal("BTC/USDT"))

	p := newTestProcessor(q, gw)
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("процессор не остановился после отмены контекста")
	}

	base.mu.Lock()
	defer base.mu.Unlock()
	require.Len(t, base.entries, 1)
	require.Len(t, base.tpBySym["BTC/USDT"], 3)
}

func TestProcessZeroQuantity(t *testing.T) {
	gw := newFakeGateway()
	q := signals.NewQueue()
	// баланс слишком мал: объём после квантования нулевой
	p := NewProcessor(zap.NewNop(), opentracing.NoopTracer{}, q, gw, position.NewSizer(0.0001, 1))

	err := p.process(context.Background(), procSignal("BTC/USDT"))
	require.Error(t, err)
	assert.Empty(t, gw.entries, "ордер не выставляется при нулевом объёме")
}
