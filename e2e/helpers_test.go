package e2e

import "pair-chat/domain"

func userID(s string) domain.UserID {
	return domain.UserID(s)
}
