package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Утилита для заполнения configs/channels.yaml: печатает chat id и
// название каждого канала/чата, из которого боту приходят обновления.
// Запустить, переслать боту сообщение из нужного канала — и скопировать
// chat_id из вывода.
func main() {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_TOKEN обязателен")
	}

	bot, err := tgbot.NewBotAPI(token)
	if err != nil {
		log.Fatalf("подключение к Telegram: %v", err)
	}
	log.Printf("[DIALOGS] авторизован как @%s, ожидание обновлений (Ctrl+C для выхода)", bot.Self.UserName)

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	seen := map[int64]bool{}
	for {
		select {
		case <-stop:
			log.Println("[DIALOGS] готово")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			chat := updChat(upd)
			if chat == nil || seen[chat.ID] {
				continue
			}
			seen[chat.ID] = true
			log.Printf("[DIALOGS] тип: %-10s | id: %-15d | название: %s", chat.Type, chat.ID, chatTitle(chat))
		}
	}
}

func updChat(upd tgbot.Update) *tgbot.Chat {
	switch {
	case upd.ChannelPost != nil:
		return upd.ChannelPost.Chat
	case upd.Message != nil:
		if fwd := upd.Message.ForwardFromChat; fwd != nil {
			return fwd
		}
		return upd.Message.Chat
	}
	return nil
}

func chatTitle(chat *tgbot.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	if chat.UserName != "" {
		return "@" + chat.UserName
	}
	return "без названия"
}
