package internal

import (
	"chat-stomp/errors"
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	ServerURL        string        `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws/websocket" validate:"required,url"`
	StompHost        string        `env:"CHAT_STOMP_HOST,default=localhost" validate:"required"`
	Username         string        `env:"CHAT_USERNAME"`
	AccessToken      string        `env:"CHAT_ACCESS_TOKEN"`
	HeartBeat        time.Duration `env:"CHAT_HEARTBEAT,default=10s" validate:"gte=0"`
	HandshakeTimeout time.Duration `env:"CHAT_HANDSHAKE_TIMEOUT,default=10s" validate:"gt=0"`
	FetchHistory     bool          `env:"CHAT_FETCH_HISTORY,default=true"`
	MaxContentLength int           `env:"MAX_CONTENT_LENGTH,default=1000" validate:"gte=0"`
	BufferSize       int           `env:"BUFFER_SIZE,default=256" validate:"gt=0"`
	SinkTimeout      time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	QueueCheck       time.Duration `env:"QUEUE_CHECK_INTERVAL,default=5s" validate:"gte=0"`
	QueueWarnPercent int           `env:"QUEUE_WARN_PERCENT,default=80" validate:"gt=0,lte=100"`
	TranscriptPath   string        `env:"TRANSCRIPT_PATH"`
	SearchIndexPath  string        `env:"SEARCH_INDEX_PATH" validate:"excluded_without=TranscriptPath"`
	InspectPort      int           `env:"INSPECT_PORT,default=8081" validate:"gte=0,lte=65535"`
	CensorEnabled    bool          `env:"CENSOR_ENABLED,default=false"`
	CensorCharacter  string        `env:"CENSOR_CHARACTER,default=*"`
	NoColor          bool          `env:"NO_COLOR,default=false"`
	StompTrace       bool          `env:"STOMP_TRACE,default=false"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

var validate = validator.New()

// LoadConfig reads the environment and validates the result.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if _, err := CharacterRune(c.CensorCharacter); err != nil {
		return err
	}
	return nil
}

func (c Config) TranscriptEnabled() bool { return c.TranscriptPath != "" }

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"%w: CENSOR_CHARACTER must be a single character, got %q",
			errors.ErrValidation, str,
		)
	}
	return r[0], nil
}
