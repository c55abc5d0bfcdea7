// pkg/network/server.go
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/opd-ai/go-tankwar/pkg/config"
	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/match"
	"github.com/opd-ai/go-tankwar/pkg/relay"
	"github.com/opd-ai/go-tankwar/pkg/validation"
	"github.com/opd-ai/go-tankwar/pkg/weapon"
)

// partialViewRadius bounds what a partial snapshot includes around
// the receiving player's tank.
const partialViewRadius = 250.0

const clientSendBuffer = 32

// GameServer runs the authoritative simulation and fans state out to
// WebSocket clients. All simulation access goes through simMu; the
// reader goroutines apply input under the same lock the game loop
// ticks under.
type GameServer struct {
	log       *zap.Logger
	cfg       config.ServerConfig
	logic     *match.Logic
	validator *validation.MessageValidator
	codec     *Codec
	upgrader  websocket.Upgrader
	rotation  []string

	httpServer *http.Server
	running    atomic.Bool
	simMu      sync.Mutex

	clientsMu sync.RWMutex
	clients   map[string]*remoteClient
	nextConn  int

	tick uint64
}

// remoteClient is one connected websocket peer
type remoteClient struct {
	connID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (rc *remoteClient) close() {
	rc.once.Do(func() {
		close(rc.send)
		rc.conn.Close()
	})
}

// NewGameServer wires the transport around an initialized match
func NewGameServer(log *zap.Logger, cfg config.ServerConfig, logic *match.Logic, rotation []string) (*GameServer, error) {
	codec, err := NewCodec(cfg.CompressThreshold)
	if err != nil {
		return nil, err
	}
	return &GameServer{
		log:       log,
		cfg:       cfg,
		logic:     logic,
		validator: validation.NewMessageValidator(),
		codec:     codec,
		rotation:  rotation,
		clients:   make(map[string]*remoteClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The server fronts a game, not a browser app; any
			// origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Run serves websocket clients and drives the game loop until the
// context is cancelled.
func (s *GameServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.running.Store(true)
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("game server listening", zap.String("addr", s.cfg.ListenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go s.gameLoop(ctx)

	select {
	case <-ctx.Done():
		s.shutdown()
		return nil
	case err := <-errCh:
		s.shutdown()
		return fmt.Errorf("server failed: %w", err)
	}
}

// Running reports whether the game loop is live, for health probes
func (s *GameServer) Running() bool {
	return s.running.Load()
}

// Addr returns the configured listen address
func (s *GameServer) Addr() string {
	return s.cfg.ListenAddr
}

func (s *GameServer) shutdown() {
	s.running.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.httpServer.Shutdown(shutdownCtx)

	s.clientsMu.Lock()
	for _, rc := range s.clients {
		rc.close()
	}
	s.clients = make(map[string]*remoteClient)
	s.clientsMu.Unlock()

	s.validator.Close()
	s.codec.Close()
	s.log.Info("game server stopped")
}

// gameLoop ticks the simulation at the configured rate and
// broadcasts state, full snapshots every Nth tick and partial ones
// in between.
func (s *GameServer) gameLoop(ctx context.Context) {
	dt := 1.0 / float64(s.cfg.TickRate)
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.simMu.Lock()
		s.logic.Update(dt)
		s.tick++
		s.maybeOpenMapVote()
		full := s.tick%uint64(s.cfg.FullStateEvery) == 0
		s.broadcastState(full)
		s.simMu.Unlock()
	}
}

// maybeOpenMapVote opens the rotation vote once the match ends
func (s *GameServer) maybeOpenMapVote() {
	if s.logic.Phase() != match.PhaseEnded || s.logic.MapVote() != nil {
		return
	}
	if len(s.rotation) < 2 {
		return
	}
	s.logic.StartMapVote(s.rotation)
	s.log.Info("map vote opened", zap.Strings("options", s.rotation))
}

// handleWS upgrades a connection and runs its read loop
func (s *GameServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.clientsMu.Lock()
	s.nextConn++
	connID := fmt.Sprintf("conn-%d", s.nextConn)
	rc := &remoteClient{connID: connID, conn: conn, send: make(chan []byte, clientSendBuffer)}
	s.clients[connID] = rc
	s.clientsMu.Unlock()

	go s.writePump(rc)
	s.readPump(rc)
}

func (s *GameServer) writePump(rc *remoteClient) {
	for frame := range rc.send {
		if err := rc.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}
}

// readPump handles one connection's inbound traffic. The first
// message must be a connect request; everything else is rejected
// until the player is admitted.
func (s *GameServer) readPump(rc *remoteClient) {
	defer s.dropClient(rc)

	rc.conn.SetReadLimit(MaxFrameSize)

	admitted := false
	for {
		_, frame, err := rc.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := s.codec.Decode(frame)
		if err != nil {
			s.log.Warn("undecodable frame", zap.String("conn", rc.connID), zap.Error(err))
			continue
		}
		// Wire frames carry a flag byte and possibly a zstd block, so
		// content validation runs on the decoded payload, not the frame.
		if err := s.validator.ValidateMessage(msg.Data, rc.connID); err != nil {
			s.log.Warn("rejected message",
				zap.String("conn", rc.connID),
				zap.Error(err),
			)
			continue
		}

		if !admitted {
			if msg.Type != MsgConnect {
				s.log.Warn("expected connect request",
					zap.String("conn", rc.connID),
					zap.String("got", msg.Type),
				)
				return
			}
			if !s.handleConnect(rc, msg.Data) {
				return
			}
			admitted = true
			continue
		}

		switch msg.Type {
		case MsgInput:
			s.handleInput(rc, msg.Data)
		case MsgVote:
			s.handleVote(rc, msg.Data)
		case MsgChat:
			s.handleChat(rc, msg.Data)
		case MsgPing:
			s.sendTo(rc, MsgPong, json.RawMessage(msg.Data))
		case MsgDisconnect:
			return
		default:
			s.log.Warn("unknown message type",
				zap.String("conn", rc.connID),
				zap.String("type", msg.Type),
			)
		}
	}
}

// handleConnect admits a player onto the relay, reporting the reason
// when the join is refused.
func (s *GameServer) handleConnect(rc *remoteClient, data []byte) bool {
	var req ConnectRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendTo(rc, MsgConnectAck, ConnectResponse{Success: false, Error: "malformed connect request"})
		return false
	}

	s.simMu.Lock()
	defer s.simMu.Unlock()

	rel := s.logic.Relay()
	if rel.HumanCount() >= s.cfg.MaxPlayers {
		s.sendTo(rc, MsgConnectAck, ConnectResponse{Success: false, Error: "server full"})
		return false
	}

	player, err := rel.Register(rc.connID, req.PlayerName)
	if err != nil {
		s.sendTo(rc, MsgConnectAck, ConnectResponse{Success: false, Error: err.Error()})
		return false
	}

	if req.TeamID >= 0 {
		if err := validation.ValidateTeamID(req.TeamID, s.logic.Teams().Count()); err != nil {
			s.sendTo(rc, MsgConnectAck, ConnectResponse{Success: false, Error: err.Error()})
			rel.Disconnect(rc.connID)
			return false
		}
		s.logic.Teams().Join(player.ID, req.TeamID)
	} else {
		s.logic.Teams().AutoAssign(player.ID)
	}

	s.sendTo(rc, MsgConnectAck, ConnectResponse{
		Success:  true,
		PlayerID: player.ID,
		TeamID:   player.TeamID,
		Mode:     s.modeName(),
	})
	s.log.Info("player connected",
		zap.String("conn", rc.connID),
		zap.Int("player_id", player.ID),
		zap.String("name", player.Name),
	)
	return true
}

func (s *GameServer) modeName() string {
	if s.logic.Mode() == nil {
		return "none"
	}
	return s.logic.Mode().Name()
}

// handleInput applies a control frame to the sender's tank and
// weapons.
func (s *GameServer) handleInput(rc *remoteClient, data []byte) {
	var in InputMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}

	s.simMu.Lock()
	defer s.simMu.Unlock()

	player, ok := s.logic.Relay().ByConn(rc.connID)
	if !ok {
		return
	}
	tank, ok := s.logic.Tank(player.ID)
	if !ok || tank.IsDead() {
		return
	}

	tank.Input = entity.TankInput{
		Throttle:   validation.ValidateInputAxis(in.Throttle),
		Steer:      validation.ValidateInputAxis(in.Steer),
		TurretTurn: validation.ValidateInputAxis(in.TurretTurn),
	}

	lo, ok := s.logic.Loadout(player.ID)
	if !ok {
		return
	}
	if in.FireCannon {
		lo.Cannon.RequestFire()
	}
	if in.LauncherActive {
		if lo.Launcher.Phase() == weapon.PhaseDeactivated {
			lo.Launcher.RequestActivate()
		}
	} else if lo.Launcher.Phase() != weapon.PhaseDeactivated {
		lo.Launcher.RequestDeactivate()
	}
	if in.FireLauncher {
		lo.Launcher.RequestFire()
	}
}

// handleVote casts a map vote, rate limited per connection
func (s *GameServer) handleVote(rc *remoteClient, data []byte) {
	var v VoteMessage
	if err := json.Unmarshal(data, &v); err != nil {
		return
	}
	if !s.validator.AllowVote(rc.connID) {
		s.log.Warn("vote rate limit exceeded", zap.String("conn", rc.connID))
		return
	}

	s.simMu.Lock()
	defer s.simMu.Unlock()

	tally := s.logic.MapVote()
	if tally == nil {
		return
	}
	player, ok := s.logic.Relay().ByConn(rc.connID)
	if !ok {
		return
	}
	tally.Cast(player.ID, v.Option)
}

// handleChat relays a chat line to every connected client
func (s *GameServer) handleChat(rc *remoteClient, data []byte) {
	var chat ChatMessage
	if err := json.Unmarshal(data, &chat); err != nil {
		return
	}

	s.simMu.Lock()
	player, ok := s.logic.Relay().ByConn(rc.connID)
	s.simMu.Unlock()
	if !ok {
		return
	}

	out := ChatMessage{
		SenderID:   player.ID,
		SenderName: player.Name,
		TeamID:     player.TeamID,
		Text:       chat.Text,
	}
	s.broadcast(MsgChat, out)
}

// dropClient tears down one connection and its player
func (s *GameServer) dropClient(rc *remoteClient) {
	s.clientsMu.Lock()
	delete(s.clients, rc.connID)
	s.clientsMu.Unlock()

	s.simMu.Lock()
	s.logic.Relay().Disconnect(rc.connID)
	s.simMu.Unlock()

	rc.close()
	s.log.Info("client disconnected", zap.String("conn", rc.connID))
}

// broadcastState sends a snapshot to every client. Partial snapshots
// are built per client around their tank. Caller holds simMu.
func (s *GameServer) broadcastState(full bool) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if len(s.clients) == 0 {
		return
	}

	var fullState *GameState
	if full {
		fullState = s.buildState(nil)
	}

	for _, rc := range s.clients {
		state := fullState
		if !full {
			player, ok := s.logic.Relay().ByConn(rc.connID)
			if !ok {
				continue
			}
			state = s.buildPartialState(player.ID)
		}
		s.enqueue(rc, MsgState, state)
	}
}

// buildPartialState limits entity payloads to the area around the
// player's tank. A player without a tank sees everything.
func (s *GameServer) buildPartialState(playerID int) *GameState {
	tank, ok := s.logic.Tank(playerID)
	if !ok {
		return s.buildState(nil)
	}
	center := tank.Position
	state := s.buildState(func(e entity.Entity) bool {
		return e.GetPosition().Distance(center) <= partialViewRadius
	})
	state.Full = false
	return state
}

// buildState assembles a snapshot, filtering entities when keep is
// non-nil. Teams, players, and flags are always included.
func (s *GameServer) buildState(keep func(entity.Entity) bool) *GameState {
	state := &GameState{
		Tick:          s.tick,
		Full:          keep == nil,
		Phase:         s.logic.Phase().String(),
		TimeRemaining: s.logic.TimeRemaining(),
	}

	s.logic.Registry().ForEach(func(e entity.Entity) {
		switch v := e.(type) {
		case *entity.Tank:
			if keep != nil && !keep(e) {
				return
			}
			state.Tanks = append(state.Tanks, TankState{
				ID:       uint64(v.ID),
				PlayerID: v.OwnerID,
				TeamID:   v.TeamID,
				X:        v.Position.X,
				Y:        v.Position.Y,
				Heading:  v.Vehicle.HullHeading,
				Turret:   v.Vehicle.TurretHeading,
				Hull:     v.Health.Current(),
				MaxHull:  v.Health.Max(),
			})
		case *entity.Projectile:
			if keep != nil && !keep(e) {
				return
			}
			state.Projectiles = append(state.Projectiles, ProjectileState{
				ID:      uint64(v.ID),
				TeamID:  v.TeamID,
				X:       v.Position.X,
				Y:       v.Position.Y,
				Heading: v.Rotation,
				Weapon:  v.WeaponName,
			})
		}
	})

	if ctf, ok := s.logic.Mode().(*match.CaptureTheFlag); ok {
		for _, f := range ctf.Flags() {
			pos := s.logic.Registry().WorldPosition(f.ID)
			state.Flags = append(state.Flags, FlagState{
				ID:      uint64(f.ID),
				TeamID:  f.TeamID,
				X:       pos.X,
				Y:       pos.Y,
				Carrier: uint64(f.CarrierTank),
				AtHome:  f.AtHome(),
			})
		}
	}

	for _, t := range s.logic.Teams().Teams() {
		state.Teams = append(state.Teams, TeamState{
			ID:    t.ID,
			Name:  t.Name,
			Color: t.Color,
			Score: t.Score,
		})
	}

	s.logic.Relay().ForEach(func(p *relay.Player) {
		state.Players = append(state.Players, PlayerState{
			ID:     p.ID,
			Name:   p.Name,
			TeamID: p.TeamID,
			TankID: uint64(p.TankID),
			Kills:  p.Kills,
			Deaths: p.Deaths,
			IsAI:   p.IsAI,
		})
	})
	return state
}

// enqueue encodes and queues one message, dropping it when the
// client's buffer is full.
func (s *GameServer) enqueue(rc *remoteClient, msgType string, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return
	}
	frame, err := s.codec.Encode(msg)
	if err != nil {
		return
	}
	select {
	case rc.send <- frame:
	default:
		// Slow consumer, drop the frame rather than stall the loop
	}
}

// sendTo encodes and queues one message for one client
func (s *GameServer) sendTo(rc *remoteClient, msgType string, payload interface{}) {
	s.enqueue(rc, msgType, payload)
}

// broadcast sends a message to every connected client
func (s *GameServer) broadcast(msgType string, payload interface{}) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, rc := range s.clients {
		s.enqueue(rc, msgType, payload)
	}
}
