package telegram

import (
	"context"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat-relay/internal/session"
)

const historyCmd = "history"

// Bot is an optional second gateway onto the session service: each
// Telegram user maps to a durable conversation keyed by their numeric
// id.
type Bot struct {
	api *tgbotapi.BotAPI
	svc *session.Service
}

func New(botToken string, svc *session.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{api: api, svc: svc}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	log.Printf("Incoming message from %s (@%s): %q", userID, msg.From.UserName, msg.Text)

	if msg.IsCommand() && msg.Command() == historyCmd {
		b.sendHistory(ctx, msg.Chat.ID, userID)
		return
	}

	reply, err := b.svc.Ask(ctx, userID, msg.Text)
	if err != nil {
		log.Printf("ask failed for user %s: %v", userID, err)
		b.sendMessage(msg.Chat.ID, "Sorry, something went wrong.")
		return
	}
	b.sendMessage(msg.Chat.ID, reply)
}

func (b *Bot) sendHistory(ctx context.Context, chatID int64, userID string) {
	msgs, err := b.svc.History(ctx, userID)
	if err != nil {
		log.Printf("history failed for user %s: %v", userID, err)
		b.sendMessage(chatID, "Sorry, something went wrong.")
		return
	}
	if len(msgs) == 0 {
		b.sendMessage(chatID, "No history yet.")
		return
	}

	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	b.sendMessage(chatID, sb.String())
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
