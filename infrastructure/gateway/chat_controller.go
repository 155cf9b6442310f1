package gateway

import (
	"net/http"
	"pair-chat/domain"
	"pair-chat/errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

type messagePayload struct {
	ID             string                `json:"id"`
	ConversationID domain.ConversationID `json:"conversationId"`
	SenderID       domain.UserID         `json:"senderId"`
	Content        string                `json:"content"`
	CreatedAt      time.Time             `json:"createdAt"`
}

type sendMessageResponse struct {
	Message   messagePayload `json:"message"`
	Delivered bool           `json:"delivered"`
}

type historyResponse struct {
	ConversationID domain.ConversationID `json:"conversationId"`
	Messages       []messagePayload      `json:"messages"`
	Cursor         string                `json:"cursor"`
}

type stateResponse struct {
	Status    domain.Status `json:"status"`
	PartnerID domain.UserID `json:"partnerId,omitempty"`
}

// operation adapts a pairing operation into a handler answering the new state.
func (r *Router) operation(op func(domain.UserID) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := identity(c)
		if err := op(userID); err != nil {
			replyError(c, err)
			return
		}
		c.JSON(http.StatusOK, toStateResponse(r.chat.State(userID)))
	}
}

func (r *Router) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		replyError(c, errors.ErrInvalidPayload)
		return
	}
	receipt, err := r.chat.Send(c.Request.Context(), identity(c), req.Content)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sendMessageResponse{
		Message:   toPayload(receipt.Message),
		Delivered: receipt.Delivered,
	})
}

func (r *Router) history(c *gin.Context) {
	page, err := r.chat.History(c.Request.Context(), identity(c), c.Query("cursor"))
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{
		ConversationID: page.ConversationID,
		Messages:       lo.Map(page.Messages, func(m domain.Message, _ int) messagePayload { return toPayload(m) }),
		Cursor:         page.Cursor,
	})
}

func (r *Router) state(c *gin.Context) {
	c.JSON(http.StatusOK, toStateResponse(r.chat.State(identity(c))))
}

func toPayload(m domain.Message) messagePayload {
	return messagePayload{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func toStateResponse(s domain.UserState) stateResponse {
	return stateResponse{Status: s.Status(), PartnerID: s.Partner()}
}
