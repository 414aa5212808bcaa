package notifier

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// CommandHandler answers a bot command. An empty reply sends nothing.
type CommandHandler func(ctx context.Context, command, args string) string

// StartPolling receives bot commands until ctx is cancelled. Only the configured
// alert chat is answered; commands from any other chat are dropped.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.logger.Info("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if update.Message.Chat == nil || update.Message.Chat.ID != t.chatID {
				t.logger.Warn("ignoring command from unknown chat",
					zap.String("command", update.Message.Command()))
				continue
			}
			cmd, args := update.Message.Command(), update.Message.CommandArguments()
			t.logger.Info("received command", zap.String("command", cmd), zap.String("args", args))

			reply := handler(ctx, cmd, args)
			if reply == "" {
				continue
			}
			if err := t.Send(ctx, reply); err != nil {
				t.logger.Error("send reply failed", zap.String("command", cmd), zap.Error(err))
			}
		}
	}
}
