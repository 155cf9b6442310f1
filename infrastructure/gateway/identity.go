package gateway

import (
	"net/http"
	"pair-chat/auth"
	"pair-chat/domain"
	"pair-chat/errors"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "user_id"
	userIDQuery = "user_id"
)

// requireIdentity reads the identity token from the X-User-ID header.
// Browsers cannot set headers on a websocket handshake, so the user_id
// query parameter is accepted too.
func requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(auth.IdentityHeader)
		if strings.TrimSpace(raw) == "" {
			raw = c.Query(userIDQuery)
		}
		userID, err := domain.ParseUserID(raw)
		switch {
		case errors.Is(err, errors.ErrEmptyIdentity):
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Code: "identity_required", Error: "identity token is missing"})
			return
		case err != nil:
			replyError(c, err)
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func identity(c *gin.Context) domain.UserID {
	return c.MustGet(userIDKey).(domain.UserID)
}
