package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"momo-checkout/internal/config"
	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/infra/metrics"
)

var _ adapter.Notifier = (*Notifier)(nil)

// sender is the slice of *tgbotapi.BotAPI the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts completed payments to an operators' chat.
type Notifier struct {
	bot    sender
	chatID int64
	log    *zerolog.Logger
}

func NewNotifier(cfg config.TelegramNotifyConfig, logger *zerolog.Logger) (*Notifier, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newNotifier(bot, cfg.ChatID, logger), nil
}

func newNotifier(bot sender, chatID int64, logger *zerolog.Logger) *Notifier {
	return &Notifier{bot: bot, chatID: chatID, log: logger}
}

func (n *Notifier) NotifyPaymentSucceeded(ctx context.Context, r model.PaymentReceipt) error {
	select {
	case <-ctx.Done():
		metrics.IncNotify("telegram", "cancelled")
		return ctx.Err()
	default:
	}

	msg := tgbotapi.NewMessage(n.chatID, formatReceipt(r))
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		metrics.IncNotify("telegram", "error")
		return fmt.Errorf("telegram send: %w", err)
	}
	metrics.IncNotify("telegram", "sent")
	n.log.Debug().Str("transaction_id", r.TransactionID).Int64("chat_id", n.chatID).Msg("payment notification sent")
	return nil
}

func formatReceipt(r model.PaymentReceipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Payment received: %d %s\n", r.Amount, r.Currency)
	fmt.Fprintf(&b, "Plan: %s (%s)\n", r.PlanName, r.PlanSlug)
	carrier := string(r.Carrier)
	if carrier == "" {
		carrier = "unknown"
	}
	fmt.Fprintf(&b, "Carrier: %s\n", carrier)
	if r.PromoCode != "" {
		fmt.Fprintf(&b, "Promo: %s\n", r.PromoCode)
	}
	if r.JobID != "" {
		fmt.Fprintf(&b, "Job: %s\n", r.JobID)
	}
	fmt.Fprintf(&b, "Transaction: %s\n", r.TransactionID)
	fmt.Fprintf(&b, "Session: %s\n", r.SessionID)
	if !r.CompletedAt.IsZero() {
		fmt.Fprintf(&b, "At: %s", r.CompletedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	return strings.TrimRight(b.String(), "\n")
}
