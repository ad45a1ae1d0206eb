package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DESKBRIDGE_LISTEN_ADDR or DESKBRIDGE_PROJECTS_DEFAULT_ZENDESK_URL.
const EnvPrefix = "DESKBRIDGE"

// Load initializes the configuration from file and environment variables.
func Load(cfgFile string) error {
	return LoadInto(viper.GetViper(), cfgFile)
}

// LoadInto is Load against an explicit viper instance.
func LoadInto(v *viper.Viper, cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	return nil
}

// SetDefaults registers the default value of every global setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("metrics_addr", ":2112")
	v.SetDefault("verbose", false)
	v.SetDefault("log_file", "")
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.dsn", ".deskbridge.db")
	v.SetDefault("notifications.slack.channel", "#support")
}
