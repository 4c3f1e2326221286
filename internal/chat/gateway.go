package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultGatewayURL = "wss://chat.example.org/gateway"

// Inbound event kinds delivered by the gateway socket.
const (
	OpIdentify    = "identify"
	OpMessage     = "message_create"
	OpReactionAdd = "reaction_add"
)

// MessageEvent is a user message the dispatcher may parse as a command.
type MessageEvent struct {
	MessageID string `json:"id"`
	ChannelID string `json:"channel_id"`
	AuthorID  string `json:"author_id"`
	AuthorBot bool   `json:"author_bot"`
	Content   string `json:"content"`
}

// ReactionEvent is a reaction added to some message.
type ReactionEvent struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	UserBot   bool   `json:"user_bot"`
	Emoji     string `json:"emoji"`
}

// InboundEvent is the tagged union read off the socket. Exactly one of
// Message/Reaction is set, matching Op.
type InboundEvent struct {
	Op       string
	Message  *MessageEvent
	Reaction *ReactionEvent
}

type gatewayFrame struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
}

// Gateway holds the websocket to the chat platform and turns frames
// into InboundEvents on Events(). It reconnects with capped backoff
// until the context is cancelled.
type Gateway struct {
	token  string
	url    string
	logger *zap.Logger
	events chan InboundEvent
}

func NewGateway(token, gatewayURL string, logger *zap.Logger) *Gateway {
	if gatewayURL == "" {
		gatewayURL = defaultGatewayURL
	}
	return &Gateway{
		token:  token,
		url:    gatewayURL,
		logger: logger,
		events: make(chan InboundEvent, 64),
	}
}

// Events is the stream of inbound gateway events. Closed when Run returns.
func (g *Gateway) Events() <-chan InboundEvent {
	return g.events
}

// Run connects and pumps events until ctx is cancelled. Connection
// errors are logged and retried; they never take the bot down.
func (g *Gateway) Run(ctx context.Context) {
	defer close(g.events)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		err := g.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}
		g.logger.Warn("gateway disconnected, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", backoff),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (g *Gateway) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	identify := gatewayFrame{Op: OpIdentify}
	identify.Data, _ = json.Marshal(map[string]string{"token": g.token})
	if err := conn.WriteJSON(identify); err != nil {
		return err
	}

	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame gatewayFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			g.logger.Warn("unparseable gateway frame", zap.Error(err))
			continue
		}

		ev := InboundEvent{Op: frame.Op}
		switch frame.Op {
		case OpMessage:
			var m MessageEvent
			if err := json.Unmarshal(frame.Data, &m); err != nil {
				g.logger.Warn("bad message frame", zap.Error(err))
				continue
			}
			ev.Message = &m
		case OpReactionAdd:
			var r ReactionEvent
			if err := json.Unmarshal(frame.Data, &r); err != nil {
				g.logger.Warn("bad reaction frame", zap.Error(err))
				continue
			}
			ev.Reaction = &r
		default:
			continue
		}

		select {
		case g.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
