package domain

import "time"

const AnonymousNickname = "anonymous"

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
	Other  Gender = "other"
)

type Profile struct {
	ID        UserID   `validate:"required,max=128"`
	Nickname  string   `validate:"required,min=1,max=32"`
	Age       int      `validate:"required,min=13,max=100"`
	Gender    Gender   `validate:"required,oneof=male female other"`
	Interests []string `validate:"max=5,dive,required,max=32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName falls back to the anonymous nickname when no profile exists.
func DisplayName(p Profile, exists bool) string {
	if !exists || p.Nickname == "" {
		return AnonymousNickname
	}
	return p.Nickname
}
