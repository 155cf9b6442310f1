package repositories

import (
	"fmt"
	"strings"

	"github.com/mama165/sdk-go/database"
)

const (
	messagePrefix = "msg:"
	profilePrefix = "profile:"
)

// InspectMapper renders a stored value for the Badger debug inspector.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	switch {
	case strings.HasPrefix(key, messagePrefix):
		m, err := decodeMessage(val)
		if err != nil {
			row.Detail = "Error: decode failed"
			return row
		}
		row.Type = "MESSAGE"
		row.Detail = fmt.Sprintf("%s: %s", m.SenderID, m.Content)
	case strings.HasPrefix(key, profilePrefix):
		p, err := decodeProfile(val)
		if err != nil {
			row.Detail = "Error: decode failed"
			return row
		}
		row.Type = "PROFILE"
		row.Detail = fmt.Sprintf("%s, %d, %s [%s]", p.Nickname, p.Age, p.Gender, strings.Join(p.Interests, ","))
	case strings.HasPrefix(key, pairingPrefix):
		s, err := decodePairing(val)
		if err != nil {
			row.Detail = "Error: decode failed"
			return row
		}
		row.Type = "PAIRING"
		row.Detail = fmt.Sprintf("%s <-> %s since %s", s.UserA, s.UserB, s.CreatedAt.Format("15:04:05"))
	}
	return row
}
