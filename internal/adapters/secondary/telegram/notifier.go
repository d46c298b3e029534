package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// Config holds Telegram notifier configuration.
type Config struct {
	Token    string        // Bot token from @BotFather
	ChatID   string        // Numeric chat id or @channel username
	Endpoint string        // API endpoint format, defaults to tgbotapi.APIEndpoint
	Timeout  time.Duration // Per-request timeout when HTTPClient is nil

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Notifier posts alerts to a single Telegram chat.
type Notifier struct {
	token    string
	endpoint string
	client   *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI

	chatID  int64
	channel string
	logger  *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// New creates a notifier and tries to authenticate the bot. A rejected token
// fails here. Any other failure is logged and authentication is retried on
// the next alert, so a chat outage never blocks the sync cycles.
func New(cfg Config) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram: token is required")
	}

	n := &Notifier{
		token:    cfg.Token,
		endpoint: cfg.Endpoint,
		client:   cfg.HTTPClient,
		logger:   cfg.Logger,
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	n.logger = n.logger.With("component", "telegram")
	if n.endpoint == "" {
		n.endpoint = tgbotapi.APIEndpoint
	}
	if n.client == nil {
		n.client = &http.Client{Timeout: cfg.Timeout}
	}

	switch chat := strings.TrimSpace(cfg.ChatID); {
	case strings.HasPrefix(chat, "@"):
		n.channel = chat
	default:
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("telegram: invalid chat_id %q: %w", cfg.ChatID, err)
		}
		n.chatID = id
	}

	if _, err := n.botAPI(); err != nil {
		if isUnauthorized(err) {
			return nil, err
		}
		n.logger.Warn("telegram unreachable, will retry on the next alert", "error", err)
	}
	return n, nil
}

// botAPI returns the authenticated bot, calling getMe when no earlier
// attempt succeeded.
func (n *Notifier) botAPI() (*tgbotapi.BotAPI, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bot != nil {
		return n.bot, nil
	}

	bot, err := tgbotapi.NewBotAPIWithClient(n.token, n.endpoint, n.client)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}
	n.bot = bot
	n.logger.Info("telegram bot authorized", "username", bot.Self.UserName)
	return bot, nil
}

// Notify sends the alert as Markdown. When Telegram rejects the markup, as
// happens with an odd underscore in a name, it resends the text plainly.
func (n *Notifier) Notify(ctx context.Context, alert domain.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(alert.Text) == "" {
		n.logger.WarnContext(ctx, "skipping empty alert", "kind", alert.Kind)
		return nil
	}

	bot, err := n.botAPI()
	if err != nil {
		n.logger.ErrorContext(ctx, "telegram send failed", "kind", alert.Kind, "error", err)
		return err
	}

	msg := n.message(alert.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	_, err = bot.Send(msg)
	if err != nil && isBadRequest(err) {
		n.logger.WarnContext(ctx, "markdown send failed, falling back to plain text",
			"kind", alert.Kind,
			"error", err,
		)
		msg.Text = StripMarkdown(alert.Text)
		msg.ParseMode = ""
		_, err = bot.Send(msg)
	}
	if err != nil {
		n.logger.ErrorContext(ctx, "telegram send failed", "kind", alert.Kind, "error", err)
		return fmt.Errorf("telegram: send: %w", err)
	}

	n.logger.DebugContext(ctx, "alert sent", "kind", alert.Kind)
	return nil
}

func (n *Notifier) message(text string) tgbotapi.MessageConfig {
	if n.channel != "" {
		return tgbotapi.NewMessageToChannel(n.channel, text)
	}
	return tgbotapi.NewMessage(n.chatID, text)
}

func isBadRequest(err error) bool {
	return hasErrorCode(err, http.StatusBadRequest)
}

func isUnauthorized(err error) bool {
	return hasErrorCode(err, http.StatusUnauthorized)
}

func hasErrorCode(err error, code int) bool {
	var tgErr *tgbotapi.Error
	return errors.As(err, &tgErr) && tgErr.Code == code
}

// StripMarkdown removes the legacy Markdown markers used in alert texts.
// Underscores are kept; plain text does not interpret them.
func StripMarkdown(s string) string {
	return strings.NewReplacer("`", "", "*", "").Replace(s)
}
