package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"pair-chat/errors"
	"pair-chat/sink"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pingPeriod      = 30 * time.Second
	readTimeout     = 60 * time.Second
	maxFrameSize    = 64 << 10
	closedByClient  = "disconnected"
	unsupportedCode = "unsupported_type"
)

const (
	findFrame    = "find"
	cancelFrame  = "cancel"
	skipFrame    = "skip"
	endFrame     = "end"
	messageFrame = "send-message"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// socket upgrades the request and binds the websocket to the caller identity.
// Events pushed to the handle are written by a single writer goroutine; the
// read loop turns inbound frames into pairing operations.
func (r *Router) socket(c *gin.Context) {
	userID := identity(c)
	ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the response.
		return
	}

	conn := sink.NewChannelConnection(r.opts.ConnectionBufferSize)
	h, err := r.chat.Connect(userID, conn)
	if err != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}

	written := make(chan struct{})
	go r.writeLoop(ws, conn, written)
	defer func() {
		r.chat.Release(h)
		conn.Close(closedByClient)
		<-written
	}()

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var frame inboundFrame
		if err := ws.ReadJSON(&frame); err != nil {
			if isDecodeError(err) {
				conn.Push(errorEvent(errors.ErrInvalidPayload))
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				r.log.Debug("Websocket read failed", "user_id", userID, "error", err)
			}
			return
		}
		r.dispatch(c.Request.Context(), conn, userID, frame)
	}
}

func (r *Router) dispatch(parent context.Context, conn *sink.ChannelConnection, userID domain.UserID, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(parent, r.opts.InflightTimeout)
	defer cancel()

	var err error
	switch frame.Type {
	case findFrame:
		err = r.chat.Find(userID)
	case cancelFrame:
		err = r.chat.Cancel(userID)
	case skipFrame:
		err = r.chat.Skip(userID)
	case endFrame:
		err = r.chat.End(userID)
	case messageFrame:
		_, err = r.chat.Send(ctx, userID, frame.Content)
	default:
		conn.Push(event.Error{Code: unsupportedCode, Message: "unknown frame type"})
		return
	}
	if err != nil {
		conn.Push(errorEvent(err))
	}
}

// writeLoop drains the handle until it is closed, then sends a close frame
// carrying the reason.
func (r *Router) writeLoop(ws *websocket.Conn, conn *sink.ChannelConnection, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-conn.Done():
			r.flush(ws, conn)
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, conn.Reason()), time.Now().Add(writeWait))
			_ = ws.Close()
			return
		case evt := <-conn.Events():
			if err := writeEvent(ws, evt); err != nil {
				_ = ws.Close()
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = ws.Close()
				return
			}
		}
	}
}

func (r *Router) flush(ws *websocket.Conn, conn *sink.ChannelConnection) {
	for {
		select {
		case evt := <-conn.Events():
			if err := writeEvent(ws, evt); err != nil {
				return
			}
		default:
			return
		}
	}
}

func writeEvent(ws *websocket.Conn, evt event.Event) error {
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteJSON(event.ToFrame(evt))
}

// isDecodeError reports a malformed frame; the connection itself is still usable.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) || stderrors.Is(err, io.ErrUnexpectedEOF)
}

func errorEvent(err error) event.Error {
	return event.Error{Code: errors.Code(err), Message: err.Error()}
}
