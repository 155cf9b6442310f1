package gateway

import (
	"net/http"
	"pair-chat/errors"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func httpStatus(kind errors.Kind) int {
	switch kind {
	case errors.KindInvalidState, errors.KindConflict:
		return http.StatusConflict
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func replyError(c *gin.Context, err error) {
	c.JSON(httpStatus(errors.KindOf(err)), errorBody{Code: errors.Code(err), Error: err.Error()})
}
