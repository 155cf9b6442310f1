package repositories

import (
	"pair-chat/domain"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestInspectMapper(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	t.Run("message", func(t *testing.T) {
		req := require.New(t)
		msg := domain.Message{ID: uuid.New(), ConversationID: "u1_u2", SenderID: "u1", Content: "hello", CreatedAt: at}

		row := InspectMapper("msg:u1_u2:0000000000000000001:"+msg.ID.String(), encodeMessage(msg))

		req.Equal("MESSAGE", row.Type)
		req.Equal("u1: hello", row.Detail)
	})

	t.Run("pairing", func(t *testing.T) {
		req := require.New(t)
		session := domain.NewPairingSession("u1", "u2", at)

		row := InspectMapper("pairing:u1_u2", encodePairing(session))

		req.Equal("PAIRING", row.Type)
		req.Equal("u1 <-> u2 since 09:30:00", row.Detail)
	})

	t.Run("corrupted value", func(t *testing.T) {
		req := require.New(t)

		row := InspectMapper("profile:u1", []byte{0xff, 0xff, 0xff})

		req.Equal("Error: decode failed", row.Detail)
	})
}
