// pkg/network/message.go
package network

import "encoding/json"

// Message type tags carried in the envelope's type field
const (
	MsgConnect    = "connect"
	MsgConnectAck = "connect_ack"
	MsgInput      = "input"
	MsgVote       = "vote"
	MsgChat       = "chat"
	MsgState      = "state"
	MsgPing       = "ping"
	MsgPong       = "pong"
	MsgDisconnect = "disconnect"
)

// Message is the wire envelope. The payload stays raw until the type
// is known.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage wraps a payload in an envelope
func NewMessage(msgType string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Data: data}, nil
}

// ConnectRequest is the first message a client sends. Team -1 asks
// for auto-assignment.
type ConnectRequest struct {
	PlayerName string `json:"playerName"`
	TeamID     int    `json:"teamID"`
}

// ConnectResponse approves or rejects a join
type ConnectResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	PlayerID int    `json:"playerID,omitempty"`
	TeamID   int    `json:"teamID,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

// InputMessage carries one tick of control state
type InputMessage struct {
	Throttle       float64 `json:"throttle"`
	Steer          float64 `json:"steer"`
	TurretTurn     float64 `json:"turretTurn"`
	FireCannon     bool    `json:"fireCannon"`
	FireLauncher   bool    `json:"fireLauncher"`
	LauncherActive bool    `json:"launcherActive"`
}

// VoteMessage casts a map vote
type VoteMessage struct {
	Option int `json:"option"`
}

// ChatMessage is a chat line; the server fills in the sender
type ChatMessage struct {
	SenderID   int    `json:"senderID,omitempty"`
	SenderName string `json:"senderName,omitempty"`
	TeamID     int    `json:"teamID,omitempty"`
	Text       string `json:"text"`
}

// GameState is a world snapshot. Partial snapshots carry only the
// entities near the receiving player; Full marks the complete ones.
type GameState struct {
	Tick          uint64            `json:"tick"`
	Full          bool              `json:"full"`
	Phase         string            `json:"phase"`
	TimeRemaining float64           `json:"timeRemaining"`
	Tanks         []TankState       `json:"tanks,omitempty"`
	Projectiles   []ProjectileState `json:"projectiles,omitempty"`
	Flags         []FlagState       `json:"flags,omitempty"`
	Teams         []TeamState       `json:"teams,omitempty"`
	Players       []PlayerState     `json:"players,omitempty"`
}

// TankState is the replicated view of one tank
type TankState struct {
	ID       uint64  `json:"id"`
	PlayerID int     `json:"playerID"`
	TeamID   int     `json:"teamID"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Heading  float64 `json:"heading"`
	Turret   float64 `json:"turret"`
	Hull     float64 `json:"hull"`
	MaxHull  float64 `json:"maxHull"`
}

// ProjectileState is the replicated view of one shell or rocket
type ProjectileState struct {
	ID      uint64  `json:"id"`
	TeamID  int     `json:"teamID"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Weapon  string  `json:"weapon"`
}

// FlagState is the replicated view of one CTF flag
type FlagState struct {
	ID      uint64  `json:"id"`
	TeamID  int     `json:"teamID"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Carrier uint64  `json:"carrier,omitempty"`
	AtHome  bool    `json:"atHome"`
}

// TeamState is the replicated view of one team
type TeamState struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Score int    `json:"score"`
}

// PlayerState is the replicated view of one player's scoreboard row
type PlayerState struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	TeamID int    `json:"teamID"`
	TankID uint64 `json:"tankID"`
	Kills  int    `json:"kills"`
	Deaths int    `json:"deaths"`
	IsAI   bool   `json:"isAI"`
}
