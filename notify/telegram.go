package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramChannel 将通知投递到用户的 Telegram 私聊
type TelegramChannel struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramChannel(bot *tgbotapi.BotAPI) *TelegramChannel {
	return &TelegramChannel{bot: bot}
}

func (c *TelegramChannel) Send(_ context.Context, ev Event) error {
	msg := tgbotapi.NewMessage(ev.UserID, ev.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	return err
}

func (c *TelegramChannel) Name() string { return "telegram" }
