// pkg/relay/relay.go
package relay

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
	"github.com/opd-ai/go-tankwar/pkg/replica"
	"github.com/opd-ai/go-tankwar/pkg/validation"
)

// Relay is the player directory. It maps connection ids to players
// and player ids to players, and allocates player ids from a counter
// that never reuses a value. A player leaves the directory when their
// avatar entity despawns; a disconnect only triggers that despawn.
type Relay struct {
	auth     *replica.Authority
	bus      *event.Bus
	registry *entity.Registry
	log      *zap.Logger

	byConn   map[string]*Player
	byID     map[int]*Player
	byAvatar map[entity.ID]int
	nextID   int
}

// NewRelay creates an empty player directory
func NewRelay(auth *replica.Authority, bus *event.Bus, registry *entity.Registry, log *zap.Logger) *Relay {
	r := &Relay{
		auth:     auth,
		bus:      bus,
		registry: registry,
		log:      log,
		byConn:   make(map[string]*Player),
		byID:     make(map[int]*Player),
		byAvatar: make(map[entity.ID]int),
		nextID:   1,
	}
	bus.Subscribe(event.EntityDespawned, r.onEntityDespawned)
	return r
}

// Register admits a connection under a player name. Registering the
// same connection again returns the existing player, so a duplicate
// join request cannot mint a second identity.
func (r *Relay) Register(connID, name string) (*Player, error) {
	if p, ok := r.byConn[connID]; ok {
		return p, nil
	}
	clean, err := validation.ValidatePlayerName(name)
	if err != nil {
		return nil, fmt.Errorf("rejecting join: %w", err)
	}

	p := newPlayer(r.nextID, clean, connID, false)
	r.nextID++
	r.admit(p)

	r.log.Info("player registered",
		zap.Int("player_id", p.ID),
		zap.String("name", p.Name),
		zap.String("conn_id", connID),
	)
	return p, nil
}

// AddAIPlayer admits a server-controlled player that occupies a team
// slot without a connection, used to fill matches below the human
// minimum.
func (r *Relay) AddAIPlayer(name string) *Player {
	p := newPlayer(r.nextID, name, "", true)
	r.nextID++
	r.admit(p)

	r.log.Info("ai player added", zap.Int("player_id", p.ID), zap.String("name", p.Name))
	return p
}

func (r *Relay) admit(p *Player) {
	av := &avatar{}
	av.OwnerID = p.ID
	av.TeamID = -1
	// Layer 0 keeps avatars out of every spatial query
	p.AvatarID = r.registry.Spawn(av, physics.Layer(0))

	if p.ConnID != "" {
		r.byConn[p.ConnID] = p
	}
	r.byID[p.ID] = p
	r.byAvatar[p.AvatarID] = p.ID

	r.bus.Publish(event.NewPlayerEvent(event.PlayerJoined, r, p.ID, p.Name))
}

// Disconnect handles a dropped connection by despawning the player's
// avatar. The directory entry is removed by the despawn handler, not
// here.
func (r *Relay) Disconnect(connID string) {
	p, ok := r.byConn[connID]
	if !ok {
		return
	}
	r.registry.Despawn(p.AvatarID)
}

// RemovePlayer despawns a player's avatar directly, used for AI
// players and administrative kicks.
func (r *Relay) RemovePlayer(playerID int) {
	p, ok := r.byID[playerID]
	if !ok {
		return
	}
	r.registry.Despawn(p.AvatarID)
}

// onEntityDespawned removes the directory entries for a player whose
// avatar just despawned.
func (r *Relay) onEntityDespawned(e event.Event) {
	ee := e.(*event.EntityEvent)
	playerID, ok := r.byAvatar[entity.ID(ee.EntityID)]
	if !ok {
		return
	}
	p := r.byID[playerID]

	delete(r.byAvatar, p.AvatarID)
	delete(r.byID, p.ID)
	if p.ConnID != "" {
		delete(r.byConn, p.ConnID)
	}

	if p.TankID != entity.None {
		r.registry.Despawn(p.TankID)
	}

	r.log.Info("player removed", zap.Int("player_id", p.ID), zap.String("name", p.Name))
	r.bus.Publish(event.NewPlayerEvent(event.PlayerLeft, r, p.ID, p.Name))
}

// ByConn returns the player registered for a connection
func (r *Relay) ByConn(connID string) (*Player, bool) {
	p, ok := r.byConn[connID]
	return p, ok
}

// ByID returns a player by player id
func (r *Relay) ByID(playerID int) (*Player, bool) {
	p, ok := r.byID[playerID]
	return p, ok
}

// ByTank returns the player driving a tank entity
func (r *Relay) ByTank(tankID entity.ID) (*Player, bool) {
	for _, p := range r.byID {
		if p.TankID == tankID {
			return p, true
		}
	}
	return nil, false
}

// Count returns the number of registered players
func (r *Relay) Count() int {
	return len(r.byID)
}

// HumanCount returns the number of connected human players
func (r *Relay) HumanCount() int {
	n := 0
	for _, p := range r.byID {
		if p.Human() {
			n++
		}
	}
	return n
}

// ForEach visits every registered player
func (r *Relay) ForEach(fn func(*Player)) {
	for _, p := range r.byID {
		fn(p)
	}
}
