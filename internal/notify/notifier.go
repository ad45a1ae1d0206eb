package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"deskbridge/internal/plugin"
	"deskbridge/internal/telemetry"

	"github.com/slack-go/slack"
	"github.com/spf13/viper"
)

const defaultChannel = "#support"

// slackPoster is the subset of *slack.Client used for bot-token delivery.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Settings controls Slack delivery. A webhook takes precedence over a bot token.
type Settings struct {
	Enabled    bool
	WebhookURL string
	BotToken   string
	Channel    string
	// Per ticket type switches; an absent entry means enabled.
	Events map[string]bool
}

// SettingsFromViper reads notifications.slack.* from v (global viper when nil).
// The bot token falls back to SLACK_BOT_USER_TOKEN.
func SettingsFromViper(v *viper.Viper) Settings {
	if v == nil {
		v = viper.GetViper()
	}
	s := Settings{
		Enabled:    v.GetBool("notifications.slack.enabled"),
		WebhookURL: v.GetString("notifications.slack.webhook_url"),
		BotToken:   v.GetString("notifications.slack.bot_token"),
		Channel:    v.GetString("notifications.slack.channel"),
		Events:     map[string]bool{},
	}
	if s.BotToken == "" {
		s.BotToken = os.Getenv("SLACK_BOT_USER_TOKEN")
	}
	for _, kind := range []string{"problem", "incident"} {
		key := "notifications.slack.events." + kind
		if v.IsSet(key) {
			s.Events[kind] = v.GetBool(key)
		}
	}
	return s
}

// SlackNotifier posts a message whenever a ticket is auto-created.
type SlackNotifier struct {
	settings Settings
	client   slackPoster
	logger   *slog.Logger
}

var _ plugin.TicketObserver = (*SlackNotifier)(nil)

// NewSlackNotifier returns nil when Slack delivery is disabled or has no
// credentials, so callers can skip registering it.
func NewSlackNotifier(s Settings, logger *slog.Logger, opts ...slack.Option) *SlackNotifier {
	logger = telemetry.Component(logger, "notify")

	if !s.Enabled {
		return nil
	}
	if s.Channel == "" {
		s.Channel = defaultChannel
	}

	n := &SlackNotifier{settings: s, logger: logger}
	switch {
	case s.WebhookURL != "":
	case s.BotToken != "":
		n.client = slack.New(s.BotToken, opts...)
	default:
		logger.Warn("slack enabled but neither webhook_url nor SLACK_BOT_USER_TOKEN is set, notifications disabled")
		return nil
	}
	return n
}

// OnTicketCreated implements plugin.TicketObserver.
func (n *SlackNotifier) OnTicketCreated(ctx context.Context, ev plugin.TicketEvent) error {
	if enabled, ok := n.settings.Events[ev.TicketType]; ok && !enabled {
		return nil
	}
	return n.Notify(ctx, FormatTicketMessage(ev))
}

// Notify delivers a plain message.
func (n *SlackNotifier) Notify(ctx context.Context, message string) error {
	if n.settings.WebhookURL != "" {
		err := slack.PostWebhookContext(ctx, n.settings.WebhookURL, &slack.WebhookMessage{
			Channel: n.settings.Channel,
			Text:    message,
		})
		if err != nil {
			return fmt.Errorf("failed to send slack webhook: %w", err)
		}
		return nil
	}

	if n.client == nil {
		return errors.New("slack client is not configured")
	}
	_, ts, err := n.client.PostMessageContext(ctx, n.settings.Channel, slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	n.logger.Debug("slack message posted", "channel", n.settings.Channel, "ts", ts)
	return nil
}

// FormatTicketMessage renders a ticket event in Slack mrkdwn.
func FormatTicketMessage(ev plugin.TicketEvent) string {
	title := ev.Event.Title
	if title == "" {
		title = ev.Group.Title
	}
	msg := fmt.Sprintf("Created Zendesk %s <%s|#%s> for <%s|%s>",
		ev.TicketType, ev.TicketURL, ev.TicketID, ev.Group.URL, title)
	if ev.ProblemID != "" {
		msg += fmt.Sprintf(" (problem #%s)", ev.ProblemID)
	}
	return msg
}
