package notify

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// TelegramSender sends plain-text messages through the Bot API.
type TelegramSender struct {
	bot *tele.Bot
}

// NewTelegramSender builds a send-only bot. No poller is attached; the bot is
// used purely as an HTTP client for sendMessage.
func NewTelegramSender(token string) (*TelegramSender, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Client: nil, // telebot's default client
	})
	if err != nil {
		return nil, err
	}
	return &TelegramSender{bot: b}, nil
}

func (t *TelegramSender) Send(ctx context.Context, chatID int64, text string) error {
	if t == nil || t.bot == nil {
		return errors.New("telegram sender not initialized")
	}
	// telebot has no context plumbing on Send; bound the call indirectly by
	// giving up early when ctx is already done.
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{DisableWebPagePreview: true})
	return err
}
