package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CHAT_E2E_URL is the WebSocket endpoint of a running chat server. The
	// suite is skipped when it is empty.
	ServerURL string `envconfig:"CHAT_E2E_URL"`
	StompHost string `envconfig:"CHAT_E2E_STOMP_HOST" default:"localhost"`
	// E2E_TRACE dumps every STOMP frame in the test log
	Trace bool `envconfig:"E2E_TRACE" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
