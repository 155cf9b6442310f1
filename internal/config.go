package internal

import (
	"fmt"
	"time"
)

type Config struct {
	LogLevel       string `env:"LOG_LEVEL,required=true"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	Host           string `env:"HOST,default=0.0.0.0"`
	GrpcPort       int    `env:"GRPC_PORT,default=8080"`
	HttpPort       int    `env:"HTTP_PORT,default=8081"`
	// DebugPort serves the Badger inspector when set.
	DebugPort int `env:"DEBUG_PORT,default=0"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	TelemetryBufferSize  int           `env:"TELEMETRY_BUFFER_SIZE,default=1024"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=15s"`

	HistoryPageSize  int `env:"HISTORY_PAGE_SIZE,default=50"`
	MaxContentLength int `env:"MAX_CONTENT_LENGTH,default=2000"`

	// Zero disables the matching policy.
	QueueIdleTimeout time.Duration `env:"QUEUE_IDLE_TIMEOUT,default=0s"`
	AbandonTimeout   time.Duration `env:"ABANDON_TIMEOUT,default=0s"`
	ReaperInterval   time.Duration `env:"REAPER_INTERVAL,default=30s"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL,default=1m"`

	ModerationEnabled bool   `env:"MODERATION_ENABLED,default=true"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
