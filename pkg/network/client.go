// pkg/network/client.go
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// GameClient connects to a game server over WebSocket. Connection
// attempts run through a circuit breaker so a dead server fails fast
// instead of hammering reconnects.
type GameClient struct {
	log     *zap.Logger
	codec   *Codec
	service *NetworkService

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	playerID  int
	teamID    int

	states chan *GameState
	chat   chan *ChatMessage

	dialTimeout  time.Duration
	writeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewGameClient creates a disconnected client
func NewGameClient(log *zap.Logger) (*GameClient, error) {
	codec, err := NewCodec(0)
	if err != nil {
		return nil, err
	}
	return &GameClient{
		log:          log,
		codec:        codec,
		service:      NewNetworkService(log, DefaultBreakerConfig()),
		states:       make(chan *GameState, 10),
		chat:         make(chan *ChatMessage, 10),
		dialTimeout:  10 * time.Second,
		writeTimeout: 10 * time.Second,
	}, nil
}

// Connect dials the server and performs the join handshake. The
// team id may be -1 for auto-assignment.
func (c *GameClient) Connect(ctx context.Context, url, playerName string, teamID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return fmt.Errorf("already connected")
	}

	err := c.service.ExecuteWithRetry(ctx, func() error {
		return c.dialAndJoin(ctx, url, playerName, teamID)
	})
	if err != nil {
		return err
	}

	c.connected = true
	c.ctx, c.cancel = context.WithCancel(context.Background())
	go c.readPump()

	c.log.Info("connected to server",
		zap.String("url", url),
		zap.Int("player_id", c.playerID),
		zap.Int("team_id", c.teamID),
	)
	return nil
}

func (c *GameClient) dialAndJoin(ctx context.Context, url, playerName string, teamID int) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial server: %w", err)
	}

	req := ConnectRequest{PlayerName: playerName, TeamID: teamID}
	if err := c.writeTo(conn, MsgConnect, req); err != nil {
		conn.Close()
		return err
	}

	conn.SetReadDeadline(time.Now().Add(c.dialTimeout))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to read connect response: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	msg, err := c.codec.Decode(frame)
	if err != nil {
		conn.Close()
		return err
	}
	if msg.Type != MsgConnectAck {
		conn.Close()
		return fmt.Errorf("expected connect ack, got %q", msg.Type)
	}
	var resp ConnectResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		conn.Close()
		return fmt.Errorf("malformed connect response: %w", err)
	}
	if !resp.Success {
		conn.Close()
		return fmt.Errorf("join rejected: %s", resp.Error)
	}

	c.conn = conn
	c.playerID = resp.PlayerID
	c.teamID = resp.TeamID
	return nil
}

// readPump delivers server messages to the state and chat channels
func (c *GameClient) readPump() {
	defer c.markDisconnected()

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				c.log.Warn("connection lost", zap.Error(err))
			}
			return
		}
		msg, err := c.codec.Decode(frame)
		if err != nil {
			c.log.Warn("undecodable server frame", zap.Error(err))
			continue
		}

		switch msg.Type {
		case MsgState:
			var state GameState
			if err := json.Unmarshal(msg.Data, &state); err != nil {
				continue
			}
			select {
			case c.states <- &state:
			default:
				// Rendering fell behind, prefer fresh snapshots
				select {
				case <-c.states:
				default:
				}
				c.states <- &state
			}
		case MsgChat:
			var line ChatMessage
			if err := json.Unmarshal(msg.Data, &line); err != nil {
				continue
			}
			select {
			case c.chat <- &line:
			default:
			}
		case MsgPong:
			// Latency probes are fire and forget
		}
	}
}

func (c *GameClient) markDisconnected() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

// SendInput ships one control frame to the server
func (c *GameClient) SendInput(input InputMessage) error {
	return c.send(MsgInput, input)
}

// CastVote votes for a map rotation entry
func (c *GameClient) CastVote(option int) error {
	return c.send(MsgVote, VoteMessage{Option: option})
}

// SendChat sends a chat line
func (c *GameClient) SendChat(text string) error {
	return c.send(MsgChat, ChatMessage{Text: text})
}

// Ping sends a latency probe
func (c *GameClient) Ping() error {
	return c.send(MsgPing, struct {
		At int64 `json:"at"`
	}{At: time.Now().UnixMilli()})
}

func (c *GameClient) send(msgType string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.writeTo(c.conn, msgType, payload)
}

func (c *GameClient) writeTo(conn *websocket.Conn, msgType string, payload interface{}) error {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	frame, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("failed to send %s: %w", msgType, err)
	}
	return nil
}

// States returns the snapshot channel
func (c *GameClient) States() <-chan *GameState {
	return c.states
}

// Chat returns the incoming chat channel
func (c *GameClient) Chat() <-chan *ChatMessage {
	return c.chat
}

// PlayerID returns the id assigned at join
func (c *GameClient) PlayerID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// TeamID returns the team assigned at join
func (c *GameClient) TeamID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teamID
}

// Connected reports whether the client currently holds a live
// connection.
func (c *GameClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close tears the connection down
func (c *GameClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	c.connected = false
	if c.cancel != nil {
		c.cancel()
	}
	c.writeTo(c.conn, MsgDisconnect, struct{}{})
	err := c.conn.Close()
	c.codec.Close()
	return err
}
