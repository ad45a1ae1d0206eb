package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"deskbridge/internal/plugin"

	"github.com/slack-go/slack"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSlackPoster struct {
	channel string
	calls   int
	err     error
}

func (m *mockSlackPoster) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	m.calls++
	m.channel = channelID
	return channelID, "1700000000.000100", m.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var problemEvent = plugin.TicketEvent{
	ProjectID:  "default",
	Group:      plugin.Group{ID: "42", Title: "Group", URL: "https://sentry.example.com/issues/42/"},
	Event:      plugin.Event{ID: "e1", Title: "ZeroDivisionError"},
	TicketID:   "4178",
	TicketType: "problem",
	TicketURL:  "https://acme.zendesk.com/tickets/4178",
}

func TestSettingsFromViper(t *testing.T) {
	v := viper.New()
	v.Set("notifications.slack.enabled", true)
	v.Set("notifications.slack.channel", "#ops")
	v.Set("notifications.slack.events.incident", false)
	t.Setenv("SLACK_BOT_USER_TOKEN", "xoxb-env")

	s := SettingsFromViper(v)
	assert.True(t, s.Enabled)
	assert.Equal(t, "#ops", s.Channel)
	assert.Equal(t, "xoxb-env", s.BotToken)
	assert.Equal(t, map[string]bool{"incident": false}, s.Events)
}

func TestNewSlackNotifier_Disabled(t *testing.T) {
	assert.Nil(t, NewSlackNotifier(Settings{}, quietLogger()))
	assert.Nil(t, NewSlackNotifier(Settings{Enabled: true}, quietLogger()), "no credentials")
}

func TestSlackNotifier_Webhook(t *testing.T) {
	var got slack.WebhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewSlackNotifier(Settings{Enabled: true, WebhookURL: server.URL}, quietLogger())
	require.NotNil(t, n)

	require.NoError(t, n.OnTicketCreated(context.Background(), problemEvent))
	assert.Equal(t, defaultChannel, got.Channel)
	assert.Equal(t, "Created Zendesk problem <https://acme.zendesk.com/tickets/4178|#4178> for <https://sentry.example.com/issues/42/|ZeroDivisionError>", got.Text)
}

func TestSlackNotifier_WebhookError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewSlackNotifier(Settings{Enabled: true, WebhookURL: server.URL}, quietLogger())
	assert.Error(t, n.Notify(context.Background(), "hi"))
}

func TestSlackNotifier_BotToken(t *testing.T) {
	var channel, text string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		channel = r.PostForm.Get("channel")
		text = r.PostForm.Get("text")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"channel":"C123","ts":"1700000000.000100"}`)
	}))
	defer server.Close()

	n := NewSlackNotifier(Settings{Enabled: true, BotToken: "xoxb-test", Channel: "#ops"}, quietLogger(),
		slack.OptionAPIURL(server.URL+"/"))
	require.NotNil(t, n)

	require.NoError(t, n.Notify(context.Background(), "hello"))
	assert.Equal(t, "#ops", channel)
	assert.Equal(t, "hello", text)
}

func TestSlackNotifier_EventSwitches(t *testing.T) {
	poster := &mockSlackPoster{}
	n := &SlackNotifier{
		settings: Settings{Channel: "#ops", Events: map[string]bool{"incident": false}},
		client:   poster,
		logger:   quietLogger(),
	}

	incident := problemEvent
	incident.TicketType = "incident"
	require.NoError(t, n.OnTicketCreated(context.Background(), incident))
	assert.Equal(t, 0, poster.calls)

	require.NoError(t, n.OnTicketCreated(context.Background(), problemEvent))
	assert.Equal(t, 1, poster.calls)
	assert.Equal(t, "#ops", poster.channel)

	poster.err = errors.New("channel_not_found")
	assert.ErrorContains(t, n.OnTicketCreated(context.Background(), problemEvent), "channel_not_found")
}

func TestFormatTicketMessage(t *testing.T) {
	ev := problemEvent
	ev.TicketType = "incident"
	ev.TicketID = "5289"
	ev.ProblemID = "4178"
	ev.Event.Title = ""

	msg := FormatTicketMessage(ev)
	assert.Contains(t, msg, "Created Zendesk incident")
	assert.Contains(t, msg, "|Group>")
	assert.Contains(t, msg, "(problem #4178)")
}
