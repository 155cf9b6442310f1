package repositories

import (
	"fmt"
	"pair-chat/domain"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Stored values are protobuf wire messages, written field by field.
// Unknown fields are skipped on read so records can grow.

const (
	messageID             protowire.Number = 1
	messageConversationID protowire.Number = 2
	messageSenderID       protowire.Number = 3
	messageContent        protowire.Number = 4
	messageCreatedAt      protowire.Number = 5

	profileID        protowire.Number = 1
	profileNickname  protowire.Number = 2
	profileAge       protowire.Number = 3
	profileGender    protowire.Number = 4
	profileInterests protowire.Number = 5
	profileCreatedAt protowire.Number = 6
	profileUpdatedAt protowire.Number = 7

	pairingUserA          protowire.Number = 1
	pairingUserB          protowire.Number = 2
	pairingConversationID protowire.Number = 3
	pairingCreatedAt      protowire.Number = 4
)

func encodeMessage(m domain.Message) []byte {
	var b []byte
	b = appendString(b, messageID, m.ID.String())
	b = appendString(b, messageConversationID, string(m.ConversationID))
	b = appendString(b, messageSenderID, string(m.SenderID))
	b = appendString(b, messageContent, m.Content)
	b = appendTime(b, messageCreatedAt, m.CreatedAt)
	return b
}

func decodeMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	var id string
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		switch {
		case num == messageID && typ == protowire.BytesType:
			return consumeString(v, &id)
		case num == messageConversationID && typ == protowire.BytesType:
			var s string
			n := consumeString(v, &s)
			m.ConversationID = domain.ConversationID(s)
			return n
		case num == messageSenderID && typ == protowire.BytesType:
			var s string
			n := consumeString(v, &s)
			m.SenderID = domain.UserID(s)
			return n
		case num == messageContent && typ == protowire.BytesType:
			return consumeString(v, &m.Content)
		case num == messageCreatedAt && typ == protowire.VarintType:
			return consumeTime(v, &m.CreatedAt)
		default:
			return protowire.ConsumeFieldValue(num, typ, v)
		}
	})
	if err != nil {
		return domain.Message{}, err
	}
	if m.ID, err = uuid.Parse(id); err != nil {
		return domain.Message{}, fmt.Errorf("invalid message id %q: %w", id, err)
	}
	return m, nil
}

func encodeProfile(p domain.Profile) []byte {
	var b []byte
	b = appendString(b, profileID, string(p.ID))
	b = appendString(b, profileNickname, p.Nickname)
	b = appendVarint(b, profileAge, uint64(p.Age))
	b = appendString(b, profileGender, string(p.Gender))
	for _, interest := range p.Interests {
		b = protowire.AppendTag(b, profileInterests, protowire.BytesType)
		b = protowire.AppendString(b, interest)
	}
	b = appendTime(b, profileCreatedAt, p.CreatedAt)
	b = appendTime(b, profileUpdatedAt, p.UpdatedAt)
	return b
}

func decodeProfile(b []byte) (domain.Profile, error) {
	var p domain.Profile
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		var s string
		switch {
		case num == profileID && typ == protowire.BytesType:
			n := consumeString(v, &s)
			p.ID = domain.UserID(s)
			return n
		case num == profileNickname && typ == protowire.BytesType:
			return consumeString(v, &p.Nickname)
		case num == profileAge && typ == protowire.VarintType:
			age, n := protowire.ConsumeVarint(v)
			p.Age = int(age)
			return n
		case num == profileGender && typ == protowire.BytesType:
			n := consumeString(v, &s)
			p.Gender = domain.Gender(s)
			return n
		case num == profileInterests && typ == protowire.BytesType:
			n := consumeString(v, &s)
			if n >= 0 {
				p.Interests = append(p.Interests, s)
			}
			return n
		case num == profileCreatedAt && typ == protowire.VarintType:
			return consumeTime(v, &p.CreatedAt)
		case num == profileUpdatedAt && typ == protowire.VarintType:
			return consumeTime(v, &p.UpdatedAt)
		default:
			return protowire.ConsumeFieldValue(num, typ, v)
		}
	})
	return p, err
}

func encodePairing(s domain.PairingSession) []byte {
	var b []byte
	b = appendString(b, pairingUserA, string(s.UserA))
	b = appendString(b, pairingUserB, string(s.UserB))
	b = appendString(b, pairingConversationID, string(s.ConversationID))
	b = appendTime(b, pairingCreatedAt, s.CreatedAt)
	return b
}

func decodePairing(b []byte) (domain.PairingSession, error) {
	var s domain.PairingSession
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
		var str string
		switch {
		case num == pairingUserA && typ == protowire.BytesType:
			n := consumeString(v, &str)
			s.UserA = domain.UserID(str)
			return n
		case num == pairingUserB && typ == protowire.BytesType:
			n := consumeString(v, &str)
			s.UserB = domain.UserID(str)
			return n
		case num == pairingConversationID && typ == protowire.BytesType:
			n := consumeString(v, &str)
			s.ConversationID = domain.ConversationID(str)
			return n
		case num == pairingCreatedAt && typ == protowire.VarintType:
			return consumeTime(v, &s.CreatedAt)
		default:
			return protowire.ConsumeFieldValue(num, typ, v)
		}
	})
	return s, err
}

// walk calls field for every field of b. field returns the length of the
// consumed value, or a negative protowire error code.
func walk(b []byte, field func(num protowire.Number, typ protowire.Type, v []byte) int) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m := field(num, typ, b)
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return b
	}
	return appendVarint(b, num, protowire.EncodeZigZag(t.UnixNano()))
}

func consumeString(b []byte, dst *string) int {
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumeTime(b []byte, dst *time.Time) int {
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = time.Unix(0, protowire.DecodeZigZag(v)).UTC()
	}
	return n
}
