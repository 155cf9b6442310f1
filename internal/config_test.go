package internal

import (
	"os"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("**")
	req.Error(err)

	_, err = CharacterRune("")
	req.Error(err)
}

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("BADGER_FILEPATH", t.TempDir())
	t.Setenv("QUEUE_IDLE_TIMEOUT", "5m")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	req.NoError(err)
	req.Equal(8080, config.GrpcPort)
	req.Equal(50, config.HistoryPageSize)
	req.Equal(5*time.Minute, config.QueueIdleTimeout)
	req.Zero(config.AbandonTimeout)
	req.True(config.ModerationEnabled)
	req.Equal("*", config.CharReplacement)
}

func TestConfig_Required(t *testing.T) {
	req := require.New(t)
	// Setenv restores the variables once unset here
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BADGER_FILEPATH", "")
	req.NoError(os.Unsetenv("LOG_LEVEL"))
	req.NoError(os.Unsetenv("BADGER_FILEPATH"))

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	req.Error(err)
}
