// pkg/relay/player.go
package relay

import (
	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/team"
)

// Player is one participant, human or AI. AvatarID is the player's
// persistent presence entity; it lives for the whole session, unlike
// the tank which comes and goes with respawns.
type Player struct {
	ID       int
	Name     string
	ConnID   string
	AvatarID entity.ID
	TankID   entity.ID
	TeamID   int
	Kills    int
	Deaths   int
	IsAI     bool
}

// Human reports whether the player is backed by a live connection
func (p *Player) Human() bool {
	return !p.IsAI
}

// NewPlayer creates an unregistered player record
func newPlayer(id int, name, connID string, ai bool) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		ConnID: connID,
		TeamID: team.NoTeam,
		IsAI:   ai,
	}
}

// avatar is the invisible presence entity backing a player. The relay
// despawns it on disconnect and the directory removal follows from
// the despawn event.
type avatar struct {
	entity.BaseEntity
}

func (a *avatar) Update(deltaTime float64) {}
