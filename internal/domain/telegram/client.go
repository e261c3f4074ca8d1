package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to Telegram chats. Chat IDs may be private chats of
// staff members or group chats used as a group's routing target.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
