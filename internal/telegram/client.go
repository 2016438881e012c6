// Package telegram sends analysis summaries via the Telegram Bot API.
// It formats the selected target zones of a run into a MarkdownV2 message and
// handles delivery with linear-backoff retries.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/models"
)

// maxListedZones caps the zones listed in one message.
const maxListedZones = 10

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	return newClient(bot, chatIDInt, maxRetries, retryDelayBase), nil
}

func newClient(bot sender, chatID int64, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Send sends a summary of the analysis and its target zones
func (c *Client) Send(a *models.Analysis) error {
	msg := tgbotapi.NewMessage(c.chatID, formatMessage(a))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Telegram send attempt %d/%d failed: %v", i+1, c.maxRetries, err)
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage formats an analysis into a Telegram message
func formatMessage(a *models.Analysis) string {
	var b strings.Builder

	title := "Target zones"
	if a.Well != "" {
		title += ": " + a.Well
	}
	fmt.Fprintf(&b, "🎯 *%s*\n\n", escapeMarkdownV2(title))
	fmt.Fprintf(&b, "Mode: %s, window %d, %d samples\n",
		escapeMarkdownV2(a.Mode), a.WindowSize, a.Samples)
	fmt.Fprintf(&b, "📅 %s\n\n", escapeMarkdownV2(a.CreatedAt.Format("2006-01-02 15:04:05")))

	if len(a.Zones) == 0 {
		fmt.Fprintf(&b, "No target zones found in %d windows\\.\n", len(a.Results))
		return b.String()
	}

	best, _ := a.BestZone()
	for i, z := range a.Zones {
		if i == maxListedZones {
			fmt.Fprintf(&b, "…and %d more\n", len(a.Zones)-maxListedZones)
			break
		}

		marker := ""
		if z.Depth == best.Depth {
			marker = " ⭐"
		}
		fmt.Fprintf(&b, "%d\\. *%s*%s\n", i+1, escapeMarkdownV2(formatInterval(z.ZoneTop, z.ZoneBase)), marker)
		fmt.Fprintf(&b, "   Score: *%s* \\(quality %s, entropy %s, D %s\\)\n",
			escapeMarkdownV2(fmt.Sprintf("%.3f", z.CompositeScore)),
			escapeMarkdownV2(fmt.Sprintf("%.2f", z.QualityIndex)),
			escapeMarkdownV2(fmt.Sprintf("%.2f", z.Entropy)),
			escapeMarkdownV2(fmt.Sprintf("%.2f", z.FractalDim)))
		if risks := flaggedRisks(z.WindowResult); risks != "" {
			fmt.Fprintf(&b, "   ⚠️ %s\n", escapeMarkdownV2(risks))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func flaggedRisks(r models.WindowResult) string {
	var names []string
	for _, name := range r.RiskNames() {
		if r.Risks[name] == 1 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// formatInterval formats a depth interval in metres
func formatInterval(top, base float64) string {
	return fmt.Sprintf("%.1f–%.1f m", top, base)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
