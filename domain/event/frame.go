package event

import (
	"pair-chat/domain"
	"time"
)

// Frame is the flat JSON shape of an event on the wire, shared by the
// websocket gateway and the gRPC stream. Kind selects which fields are set.
type Frame struct {
	Kind            Kind                  `json:"kind"`
	PartnerID       domain.UserID         `json:"partnerId,omitempty"`
	PartnerNickname string                `json:"partnerNickname,omitempty"`
	ConversationID  domain.ConversationID `json:"conversationId,omitempty"`
	Resumed         bool                  `json:"resumed,omitempty"`
	Reason          EndReason             `json:"reason,omitempty"`
	Message         string                `json:"message,omitempty"`
	Code            string                `json:"code,omitempty"`
	MessageID       string                `json:"messageId,omitempty"`
	SenderID        domain.UserID         `json:"senderId,omitempty"`
	Content         string                `json:"content,omitempty"`
	Timestamp       *time.Time            `json:"timestamp,omitempty"`
}

func ToFrame(evt Event) Frame {
	frame := Frame{Kind: evt.Kind()}
	switch e := evt.(type) {
	case Searching:
		frame.Message = e.Message
	case PartnerFound:
		frame.PartnerID = e.PartnerID
		frame.PartnerNickname = e.PartnerNickname
		frame.ConversationID = e.ConversationID
		frame.Resumed = e.Resumed
	case ChatEnded:
		frame.Reason = e.Reason
		frame.Message = e.Message
	case PartnerOnline:
		frame.PartnerID = e.PartnerID
	case PartnerOffline:
		frame.PartnerID = e.PartnerID
	case ReceiveMessage:
		frame.MessageID = e.ID.String()
		frame.ConversationID = e.ConversationID
		frame.SenderID = e.SenderID
		frame.Content = e.Content
		frame.Timestamp = &e.Timestamp
	case MessageSent:
		frame.MessageID = e.ID.String()
		frame.ConversationID = e.ConversationID
		frame.Timestamp = &e.Timestamp
	case Error:
		frame.Code = e.Code
		frame.Message = e.Message
	}
	return frame
}
