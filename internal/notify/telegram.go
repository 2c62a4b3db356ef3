package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quantdesk/internal/domain/models"
	"quantdesk/pkg/logger"
)

// TelegramNotifier sends execution and status alerts to a Telegram
// chat. A nil notifier is valid and drops everything, so the bot stays
// optional.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *logger.Logger
}

// NewTelegramNotifier returns nil when no token is configured.
func NewTelegramNotifier(token string, chatID int64, lgr *logger.Logger) *TelegramNotifier {
	if token == "" || chatID == 0 {
		lgr.Info("telegram notifications disabled")
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		lgr.Warn("telegram bot init failed", logger.Error(err))
		return nil
	}

	lgr.Info("telegram bot authorized", logger.String("account", bot.Self.UserName))
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: lgr}
}

func (n *TelegramNotifier) NotifyTrade(e *models.TradeExecution) {
	if n == nil {
		return
	}

	var b strings.Builder
	if e.Success {
		fmt.Fprintf(&b, "%s %s %s\n", strings.ToUpper(string(e.SignalType)), e.Symbol, e.BrokerName)
		fmt.Fprintf(&b, "qty %.6f @ %.4f\n", e.Quantity, e.Price)
		fmt.Fprintf(&b, "order %s", e.OrderID)
	} else {
		fmt.Fprintf(&b, "FAILED %s %s %s\n", strings.ToUpper(string(e.SignalType)), e.Symbol, e.BrokerName)
		fmt.Fprintf(&b, "%s", e.Error)
	}

	n.send(b.String())
}

func (n *TelegramNotifier) NotifyStatus(event, detail string) {
	if n == nil {
		return
	}
	n.send(fmt.Sprintf("%s: %s", event, detail))
}

func (n *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Warn("telegram send failed", logger.Error(err))
	}
}
