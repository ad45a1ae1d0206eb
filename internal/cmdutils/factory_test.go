package cmdutils

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"deskbridge/internal/config"
	"deskbridge/internal/db"
	"deskbridge/internal/metrics"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetStore(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Run("memory", func(t *testing.T) {
		viper.Set("store.type", "memory")
		store, err := GetStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &db.MemoryStore{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		viper.Set("store.type", "sqlite")
		viper.Set("store.dsn", filepath.Join(t.TempDir(), "meta.db"))
		store, err := GetStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &db.SQLiteStore{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		viper.Set("store.type", "cassandra")
		_, err := GetStore()
		assert.Error(t, err)
	})
}

func TestGetTicketClient(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("ZENDESK_URL", "")
	t.Setenv("ZENDESK_USERNAME", "")
	t.Setenv("ZENDESK_PASSWORD", "")

	t.Run("Missing Config", func(t *testing.T) {
		client, _, err := GetTicketClient("default", quietLogger())
		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("Valid Config", func(t *testing.T) {
		viper.Set("projects.web.zendesk_url", "https://acme.zendesk.com/")
		viper.Set("projects.web.username", "bob")
		client, p, err := GetTicketClient("web", quietLogger())
		require.NoError(t, err)
		assert.Equal(t, "https://acme.zendesk.com", client.BaseURL)
		assert.Equal(t, "web", p.ID)
	})

	t.Run("Environment Variables", func(t *testing.T) {
		viper.Reset()
		t.Setenv("ZENDESK_URL", "https://env.zendesk.com")
		client, _, err := GetTicketClient("", quietLogger())
		require.NoError(t, err)
		assert.Equal(t, "https://env.zendesk.com", client.BaseURL)
	})
}

func TestGetPlugin(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("store.type", "memory")
	viper.Set("notifications.slack.enabled", true)
	viper.Set("notifications.slack.webhook_url", "https://hooks.slack.invalid/x")

	p, store, err := GetPlugin(quietLogger(), metrics.NewMetrics(), nil)
	require.NoError(t, err)
	defer store.Close()
	assert.NotNil(t, p)

	ok, err := p.IsConfigured("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetPlugin_ExplicitSource(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("store.type", "memory")

	src := config.NewStaticSource(config.Project{ID: "web", ZendeskURL: "https://acme.zendesk.com"})
	p, store, err := GetPlugin(quietLogger(), nil, src)
	require.NoError(t, err)
	defer store.Close()

	ok, err := p.IsConfigured("web")
	require.NoError(t, err)
	assert.True(t, ok)
}
