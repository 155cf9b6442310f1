package repositories

import (
	"pair-chat/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPairingRepository_SaveAll_Replaces_Snapshot(t *testing.T) {
	req := require.New(t)
	repository := NewPairingRepository(openDB(t), discard)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := []domain.PairingSession{
		domain.NewPairingSession("u1", "u2", at),
		domain.NewPairingSession("u3", "u4", at),
	}
	req.NoError(repository.SaveAll(first))

	loaded, err := repository.LoadAll()
	req.NoError(err)
	req.ElementsMatch(first, loaded)

	// When the next snapshot only holds one pairing
	second := []domain.PairingSession{domain.NewPairingSession("u5", "u1", at)}
	req.NoError(repository.SaveAll(second))

	// Then the old pairings are gone
	loaded, err = repository.LoadAll()
	req.NoError(err)
	req.Equal(second, loaded)
}

func TestPairingRepository_Empty(t *testing.T) {
	req := require.New(t)
	repository := NewPairingRepository(openDB(t), discard)

	loaded, err := repository.LoadAll()

	req.NoError(err)
	req.Empty(loaded)
}
