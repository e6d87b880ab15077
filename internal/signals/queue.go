package signals

import (
	"context"
	"sync"

	"signal_bot/internal/models"
)

// Queue — неограниченная FIFO-очередь сигналов: много продюсеров
// (обработчики сообщений), один консьюмер (процессор). Enqueue никогда
// не блокирует продюсера; Dequeue ждёт элемент или отмену контекста.
type Queue struct {
	mu    sync.Mutex
	items []models.Signal
	wake  chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

func (q *Queue) Enqueue(sig models.Signal) {
	q.mu.Lock()
	q.items = append(q.items, sig)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Dequeue возвращает следующий сигнал в порядке постановки.
// При отмене контекста возвращает (zero, false) — сигнал завершения
// для цикла консьюмера.
func (q *Queue) Dequeue(ctx context.Context) (models.Signal, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			sig := q.items[0]
			q.items[0] = models.Signal{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return sig, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return models.Signal{}, false
		case <-q.wake:
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
