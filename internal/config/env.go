package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".openclaw/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"openclaw/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
}

type AgentsEnv struct {
	// Dir is the root of the agent roster: one subdirectory per agent
	// holding agent.yaml plus a sessions directory.
	Dir string `envconfig:"AGENTS_DIR" default:".openclaw/agents"`
	// ActiveWindow is how recent a session must be for an agent to count
	// as active.
	ActiveWindow time.Duration `envconfig:"AGENTS_ACTIVE_WINDOW" default:"1h"`
}

type AuctionEnv struct {
	// AvailabilityCap is the maximum number of concurrent in-flight tasks
	// an agent may hold before it is excluded from suggestion.
	AvailabilityCap int `envconfig:"AUCTION_AVAILABILITY_CAP" default:"3"`
}

type StreamEnv struct {
	DebounceWindow    time.Duration `envconfig:"STREAM_DEBOUNCE_WINDOW" default:"2s"`
	PollInterval      time.Duration `envconfig:"STREAM_POLL_INTERVAL" default:"10s"`
	HeartbeatInterval time.Duration `envconfig:"STREAM_HEARTBEAT_INTERVAL" default:"30s"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:admin@localhost"`
}

type Env struct {
	BaseEnv
	StorageEnv
	AgentsEnv
	AuctionEnv
	StreamEnv
	VAPIDEnv
}

const namespace = "OPENCLAW"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}
