// pkg/match/tdm.go
package match

import (
	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/event"
)

// TeamDeathmatch scores one point to the killer's team per enemy tank
// destroyed. It reacts to death events only; it never reaches into
// combat resolution.
type TeamDeathmatch struct {
	logic *Logic
}

// NewTeamDeathmatch creates the TDM scoring mode
func NewTeamDeathmatch() *TeamDeathmatch {
	return &TeamDeathmatch{}
}

// Name returns the mode identifier
func (m *TeamDeathmatch) Name() string {
	return "tdm"
}

// Attach subscribes the mode to death events
func (m *TeamDeathmatch) Attach(l *Logic) {
	m.logic = l
	l.Bus().Subscribe(event.EntityDied, m.onTankDied)
}

// Update has nothing to do per tick in TDM
func (m *TeamDeathmatch) Update(deltaTime float64) {}

func (m *TeamDeathmatch) onTankDied(e event.Event) {
	if m.logic.Phase() != PhaseInProgress {
		return
	}
	de := e.(*event.DeathEvent)

	victim, ok := m.logic.Relay().ByTank(entity.ID(de.EntityID))
	if !ok {
		return
	}
	killer, ok := m.logic.Relay().ByID(de.KillerPlayer)
	if !ok || killer.ID == victim.ID {
		return
	}
	// No points for shooting your own side
	if killer.TeamID == victim.TeamID {
		return
	}
	m.logic.Teams().AddScore(killer.TeamID, 1)
}
