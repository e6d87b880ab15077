package service

import (
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"signal_bot/internal/modules/config"
)

// Titles — ленивый кеш названий каналов. Название резолвится через
// Telegram при первом обращении и живёт до конца процесса; это
// побочный кеш для логов, на пайплайн он не влияет.
type Titles struct {
	log        *zap.Logger
	bot        *tgbot.BotAPI
	configured map[int64]string // имена из configs/channels.yaml

	mu    sync.RWMutex
	cache map[int64]string
}

func NewTitles(cfg *config.Config, bot *tgbot.BotAPI, log *zap.Logger) *Titles {
	configured := make(map[int64]string, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		configured[ch.ChatID] = ch.Name
	}
	return &Titles{
		log:        log,
		bot:        bot,
		configured: configured,
		cache:      make(map[int64]string),
	}
}

func (t *Titles) Title(chatID int64) string {
	t.mu.RLock()
	title, ok := t.cache[chatID]
	t.mu.RUnlock()
	if ok {
		return title
	}

	title = t.resolve(chatID)

	t.mu.Lock()
	t.cache[chatID] = title
	t.mu.Unlock()
	return title
}

func (t *Titles) resolve(chatID int64) string {
	chat, err := t.bot.GetChat(tgbot.ChatInfoConfig{
		ChatConfig: tgbot.ChatConfig{ChatID: chatID},
	})
	if err == nil && chat.Title != "" {
		return chat.Title
	}

	if name, ok := t.configured[chatID]; ok && name != "" {
		return name
	}

	t.log.Debug("название канала не получено", zap.Int64("chatId", chatID), zap.Error(err))
	return "unknown"
}
