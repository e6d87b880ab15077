package service

import (
	"context"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
)

func NewBot(cfg *config.Config) (*tgbot.BotAPI, error) {
	bot, err := tgbot.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, errors.Wrap(err, "подключение к Telegram")
	}
	return bot, nil
}

// Listener слушает посты включённых каналов и скармливает их пайплайну.
// Каждое сообщение обрабатывается в своей горутине, чтобы длинный
// резолв названия канала не тормозил приём следующих постов.
type Listener struct {
	log     *zap.Logger
	bot     *tgbot.BotAPI
	intake  *Intake
	enabled map[int64]models.Channel
}

func NewListener(cfg *config.Config, bot *tgbot.BotAPI, intake *Intake, log *zap.Logger) *Listener {
	channels := cfg.EnabledChannels()
	return &Listener{
		log:    log,
		bot:    bot,
		intake: intake,
		enabled: lo.SliceToMap(channels, func(ch models.Channel) (int64, models.Channel) {
			return ch.ChatID, ch
		}),
	}
}

func (l *Listener) Listen(ctx context.Context) {
	if len(l.enabled) == 0 {
		l.log.Warn("нет включённых каналов для прослушивания")
		return
	}
	for _, ch := range l.enabled {
		l.log.Info("канал подключен", zap.Int64("chatId", ch.ChatID), zap.String("name", ch.Name))
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := l.bot.GetUpdatesChan(u)

	l.log.Info("слушатель активен, ожидание новых сообщений")
	for {
		select {
		case <-ctx.Done():
			l.bot.StopReceivingUpdates()
			l.log.Info("слушатель остановлен")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			post := upd.ChannelPost
			if post == nil {
				continue
			}
			if _, watched := l.enabled[post.Chat.ID]; !watched {
				continue
			}
			go l.intake.OnMessage(post.Chat.ID, post.Text)
		}
	}
}
