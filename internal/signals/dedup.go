package signals

import (
	"sync"

	"go.uber.org/zap"

	"signal_bot/internal/models"
)

// Dedup отсекает повторные доставки одной и той же инструкции.
// Ключ — (актив, направление, вход): один сигнал часто репостят
// с другими TP/SL, это всё равно та же сделка.
//
// Набор ключей растёт без ограничений всё время жизни процесса —
// TTL/вытеснение не реализованы, как и в исходном боте.
type Dedup struct {
	log *zap.Logger

	mu   sync.Mutex
	seen map[models.SignalKey]struct{}
}

func NewDedup(log *zap.Logger) *Dedup {
	return &Dedup{
		log:  log,
		seen: make(map[models.SignalKey]struct{}),
	}
}

// ShouldProcess атомарно проверяет и запоминает ключ сигнала.
// true — первая встреча, сигнал идёт дальше; false — повтор.
func (d *Dedup) ShouldProcess(sig models.Signal) bool {
	key := sig.Key()

	d.mu.Lock()
	_, dup := d.seen[key]
	if !dup {
		d.seen[key] = struct{}{}
	}
	d.mu.Unlock()

	if dup {
		d.log.Debug("повторный сигнал отброшен",
			zap.String("asset", key.Asset),
			zap.String("direction", string(key.Direction)),
			zap.String("entry", key.Entry),
		)
	}
	return !dup
}

// Len — количество запомненных ключей (для логов/тестов).
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
