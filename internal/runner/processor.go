package runner

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"signal_bot/internal/exchange"
	"signal_bot/internal/models"
	"signal_bot/internal/position"
	"signal_bot/internal/signals"
)

// Processor — единственный консьюмер очереди сигналов. Сигналы
// обрабатываются строго последовательно, один в полёте; ошибка одного
// сигнала логируется и не останавливает цикл.
type Processor struct {
	log    *zap.Logger
	tracer opentracing.Tracer
	queue  *signals.Queue
	gw     exchange.Gateway
	sizer  position.Sizer
}

func NewProcessor(
	log *zap.Logger,
	tracer opentracing.Tracer,
	queue *signals.Queue,
	gw exchange.Gateway,
	sizer position.Sizer,
) *Processor {
	return &Processor{
		log:    log,
		tracer: tracer,
		queue:  queue,
		gw:     gw,
		sizer:  sizer,
	}
}

// Run крутит цикл до отмены контекста. Отмена будит заблокированный
// Dequeue; сигнал, который уже в обработке, доводится до конца —
// бросать ордера на полпути хуже, чем задержать остановку.
func (p *Processor) Run(ctx context.Context) {
	p.log.Info("процессор сигналов запущен")
	for {
		sig, ok := p.queue.Dequeue(ctx)
		if !ok {
			p.log.Info("процессор сигналов остановлен")
			return
		}

		if err := p.process(context.WithoutCancel(ctx), sig); err != nil {
			if errors.Is(err, exchange.ErrNotTradeable) {
				p.log.Warn("сигнал пропущен: инструмент не торгуется",
					zap.String("signal", sig.String()),
					zap.Error(err),
				)
				continue
			}
			p.log.Error("ошибка обработки сигнала",
				zap.String("signal", sig.String()),
				zap.Error(err),
			)
		}
	}
}

func (p *Processor) process(ctx context.Context, sig models.Signal) error {
	span := p.tracer.StartSpan("signal.process")
	span.SetTag("asset", sig.Asset)
	span.SetTag("direction", string(sig.Direction))
	span.SetTag("leverage", sig.Leverage)
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	p.log.Info("обработка сигнала", zap.String("signal", sig.String()))

	inst, err := p.gw.ResolveInstrument(ctx, sig.Asset)
	if err != nil {
		span.SetTag("error", true)
		return err
	}

	if err := p.gw.EnsureLeverage(ctx, inst.Symbol, sig.Leverage); err != nil {
		span.SetTag("error", true)
		return errors.Wrap(err, "установка плеча")
	}

	qty := p.sizer.Size(sig.Entry, sig.Leverage, inst.Step)
	if qty.Sign() <= 0 {
		span.SetTag("error", true)
		return fmt.Errorf("нулевой объём после квантования: entry=%s step=%s", sig.Entry, inst.Step)
	}
	p.log.Info("объём позиции рассчитан",
		zap.String("symbol", inst.Symbol),
		zap.String("qty", qty.String()),
		zap.String("step", inst.Step.String()),
		zap.Bool("contracts", inst.Contracts),
	)

	levels := position.Allocate(qty, sig.TakeProfits, inst.Step)

	entryOrderID, err := p.gw.PlaceMarketWithStopLoss(ctx, inst.Symbol, sig.EntrySide(), qty, sig.StopLoss, sig.Direction)
	if err != nil {
		span.SetTag("error", true)
		return errors.Wrap(err, "входной маркет-ордер")
	}

	// выставленный вход не откатываем: если часть TP не встанет,
	// позиция остаётся под защитой стоп-лосса
	tpOrderIDs, err := p.gw.PlaceReduceOnlyLimits(ctx, inst.Symbol, sig.TakeProfitSide(), levels, sig.Direction)
	if err != nil {
		span.SetTag("error", true)
		return errors.Wrap(err, "выставление TP-ордеров")
	}

	p.log.Info("сигнал обработан",
		zap.String("asset", sig.Asset),
		zap.String("direction", string(sig.Direction)),
		zap.String("entryOrderId", entryOrderID),
		zap.Int("tpPlaced", len(tpOrderIDs)),
		zap.Int("tpTotal", len(levels)),
	)
	return nil
}
