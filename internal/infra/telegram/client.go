// internal/infra/telegram/client.go
package telegram

import (
	tg "school_reminder_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to a private or group chat.
func (tba *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	// ChatID covers both staff private chats and negative group chat IDs.
	_, err := tba.bot.Send(telebot.ChatID(chatID), text, options)
	return err
}

var _ tg.Client = (*TelebotAdapter)(nil)
