package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

var storeTypes = map[string]bool{
	"sqlite": true, "sqlite3": true, "postgres": true, "postgresql": true, "memory": true,
}

// ValidateConfig validates the global viper configuration.
func ValidateConfig() error {
	return Validate(viper.GetViper())
}

// Validate checks configuration values and returns an error listing every problem found.
func Validate(v *viper.Viper) error {
	var errors []string

	for _, key := range []string{"listen_addr", "metrics_addr"} {
		if addr := v.GetString(key); addr != "" {
			if _, _, err := net.SplitHostPort(addr); err != nil {
				errors = append(errors, fmt.Sprintf("%s must be host:port, got: %q", key, addr))
			}
		}
	}

	if st := strings.ToLower(v.GetString("store.type")); st != "" && !storeTypes[st] {
		errors = append(errors, fmt.Sprintf("store.type must be sqlite, postgres or memory, got: %q", st))
	}
	if st := strings.ToLower(v.GetString("store.type")); (st == "postgres" || st == "postgresql") && v.GetString("store.dsn") == "" {
		errors = append(errors, "store.dsn is required for postgres")
	}

	for id := range v.GetStringMap("projects") {
		raw := v.GetString("projects." + id + ".zendesk_url")
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("projects.%s.zendesk_url must be an http(s) URL, got: %q", id, raw))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(errors, "\n  "))
	}

	return nil
}
