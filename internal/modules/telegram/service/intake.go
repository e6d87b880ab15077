package service

import (
	"go.uber.org/zap"

	"signal_bot/internal/signals"
)

// TitleResolver отдаёт название канала по chat id (для логов).
type TitleResolver interface {
	Title(chatID int64) string
}

// Intake — точка входа пайплайна: валидация → парсинг → дедупликация →
// очередь. Вызывается конкурентно, по горутине на входящее сообщение;
// всё внутри либо чистое, либо защищено своими мьютексами.
type Intake struct {
	log    *zap.Logger
	dedup  *signals.Dedup
	queue  *signals.Queue
	titles TitleResolver
}

func NewIntake(log *zap.Logger, dedup *signals.Dedup, queue *signals.Queue, titles TitleResolver) *Intake {
	return &Intake{
		log:    log,
		dedup:  dedup,
		queue:  queue,
		titles: titles,
	}
}

// OnMessage обрабатывает одно сообщение канала. Не сигнал — молча мимо;
// сигнал с ошибкой разметки — warning; повтор — отсекает дедуп.
func (i *Intake) OnMessage(chatID int64, text string) {
	if !signals.IsSignal(text) {
		return
	}

	sig := signals.Parse(text)
	if sig == nil {
		i.log.Warn("не удалось распарсить сигнал",
			zap.Int64("chatId", chatID),
			zap.String("channel", i.titles.Title(chatID)),
		)
		return
	}

	if !i.dedup.ShouldProcess(*sig) {
		return
	}

	i.queue.Enqueue(*sig)
	i.log.Info("сигнал добавлен в очередь",
		zap.Int64("chatId", chatID),
		zap.String("channel", i.titles.Title(chatID)),
		zap.String("signal", sig.String()),
	)
}
