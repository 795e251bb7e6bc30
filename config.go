package relay

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Completion providers selectable via configuration. The selection is
// static; it never depends on the inbound update.
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
)

// Config carries every recognized option of the relay.
type Config struct {
	// BotToken authenticates the webhook: the request path must end with it.
	BotToken string
	// Whitelist of allowed usernames; empty allows everyone.
	Whitelist []string
	// SystemPrompt is prepended as the leading system message when non-empty.
	SystemPrompt string
	// Window is the context size N; 0 disables the context feature.
	Window int

	Provider          string
	APIKey            string
	Model             string
	AzureAPIKey       string
	AzureResourceName string
	AzureAPIVersion   string

	// OriginHeader/OriginValue gate requests on a deployment-specific origin
	// header when set, on top of the mandatory token check.
	OriginHeader string
	OriginValue  string

	CompletionTimeout time.Duration
	CompletionBaseURL string
	TelegramServerURL string

	ListenAddr string
	DBPath     string
}

// FromEnv reads the RELAY_* environment into a Config.
func FromEnv() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RELAY")
	v.AutomaticEnv()
	v.SetDefault("service_type", ProviderOpenAI)
	v.SetDefault("oai_model", "gpt-3.5-turbo")
	v.SetDefault("aoai_api_version", "2024-02-01")
	v.SetDefault("completion_timeout", "50s")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_path", "relay.db")

	cfg := Config{
		BotToken:          strings.TrimSpace(v.GetString("telegram_bot_token")),
		Whitelist:         strings.Fields(v.GetString("telegram_username_whitelist")),
		SystemPrompt:      v.GetString("behavior"),
		Window:            v.GetInt("context"),
		Provider:          strings.ToLower(strings.TrimSpace(v.GetString("service_type"))),
		APIKey:            v.GetString("oai_api_key"),
		AzureAPIKey:       v.GetString("aoai_api_key"),
		AzureResourceName: v.GetString("aoai_resource_name"),
		AzureAPIVersion:   v.GetString("aoai_api_version"),
		OriginHeader:      v.GetString("origin_header"),
		OriginValue:       v.GetString("origin_value"),
		CompletionTimeout: v.GetDuration("completion_timeout"),
		CompletionBaseURL: v.GetString("completion_base_url"),
		TelegramServerURL: v.GetString("telegram_server_url"),
		ListenAddr:        v.GetString("listen_addr"),
		DBPath:            v.GetString("db_path"),
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		cfg.Model = v.GetString("oai_model")
	case ProviderAzure:
		cfg.Model = v.GetString("aoai_deployment_name")
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("missing telegram bot token (set RELAY_TELEGRAM_BOT_TOKEN)")
	}

	return cfg, nil
}

func (c Config) contextEnabled() bool {
	return c.Window > 0
}

// windowLimit is the maximum post-append window length.
func (c Config) windowLimit() int {
	if limit := c.Window * 2; limit > 1 {
		return limit
	}
	return 1
}

func (c Config) isWhitelisted(username string) bool {
	if len(c.Whitelist) == 0 {
		return true
	}
	if username == "" {
		return false
	}
	for _, allowed := range c.Whitelist {
		if allowed == username {
			return true
		}
	}
	return false
}
