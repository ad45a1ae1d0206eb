package cmdutils

import (
	"fmt"
	"log/slog"

	"deskbridge/internal/config"
	"deskbridge/internal/db"
	"deskbridge/internal/metrics"
	"deskbridge/internal/notify"
	"deskbridge/internal/plugin"
	"deskbridge/internal/zendesk"

	"github.com/spf13/viper"
)

// GetStore opens the metadata store selected by store.type / store.dsn.
var GetStore = func() (db.MetadataStore, error) {
	return db.NewStore(db.StoreConfig{
		Type:             viper.GetString("store.type"),
		ConnectionString: viper.GetString("store.dsn"),
	})
}

// GetTicketClient builds a helpdesk client for the project, failing when the
// project has no helpdesk URL.
var GetTicketClient = func(projectID string, logger *slog.Logger) (*zendesk.Client, config.Project, error) {
	p, err := config.NewViperSource(nil).Project(projectID)
	if err != nil {
		return nil, config.Project{}, err
	}
	if !p.Configured() {
		return nil, p, fmt.Errorf("projects.%s.zendesk_url config or ZENDESK_URL environment variable is required", p.ID)
	}
	client, ok := plugin.DefaultClientFactory(p, logger).(*zendesk.Client)
	if !ok {
		return nil, p, fmt.Errorf("unexpected helpdesk client type")
	}
	return client, p, nil
}

// GetPlugin assembles the event handler from global configuration. m may be
// nil when metrics are not served. A nil src reads projects from the global
// viper instance. The caller owns the returned store.
var GetPlugin = func(logger *slog.Logger, m *metrics.Metrics, src config.Source) (*plugin.Handler, db.MetadataStore, error) {
	store, err := GetStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	opts := []plugin.Option{plugin.WithLogger(logger)}
	if m != nil {
		opts = append(opts, plugin.WithRecorder(m))
	}
	if n := notify.NewSlackNotifier(notify.SettingsFromViper(nil), logger); n != nil {
		opts = append(opts, plugin.WithObserver(n))
	}

	if src == nil {
		src = config.NewViperSource(nil)
	}
	return plugin.New(src, store, opts...), store, nil
}
