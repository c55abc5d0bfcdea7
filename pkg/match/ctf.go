// pkg/match/ctf.go
package match

import (
	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
)

// CTF constants
const (
	flagTouchRadius  = 4.0  // contact distance for pickup, return, capture
	flagReturnTime   = 20.0 // seconds a dropped flag waits before auto-return
	flagCapturePoint = 1
)

// CaptureTheFlag scores by stealing the enemy flag and bringing it to
// your own stand while your flag is home. One flag per team, created
// from the configured stand positions at attach time.
type CaptureTheFlag struct {
	logic  *Logic
	stands map[int]physics.Vector2D
	flags  map[int]*Flag
	racks  map[entity.ID]*entity.Carrier
}

// NewCaptureTheFlag creates the CTF mode with one stand per team id
func NewCaptureTheFlag(stands map[int]physics.Vector2D) *CaptureTheFlag {
	return &CaptureTheFlag{
		stands: stands,
		flags:  make(map[int]*Flag),
		racks:  make(map[entity.ID]*entity.Carrier),
	}
}

// Name returns the mode identifier
func (m *CaptureTheFlag) Name() string {
	return "ctf"
}

// Attach spawns the flags and subscribes to carrier deaths
func (m *CaptureTheFlag) Attach(l *Logic) {
	m.logic = l
	for teamID, stand := range m.stands {
		flag := NewFlag(teamID, stand)
		l.Registry().Spawn(flag, physics.LayerPickup)
		m.flags[teamID] = flag
	}
	l.Bus().Subscribe(event.EntityDied, m.onCarrierDied)
}

// Flag returns a team's flag
func (m *CaptureTheFlag) Flag(teamID int) (*Flag, bool) {
	f, ok := m.flags[teamID]
	return f, ok
}

// Flags returns every flag in the world
func (m *CaptureTheFlag) Flags() []*Flag {
	out := make([]*Flag, 0, len(m.flags))
	for _, f := range m.flags {
		out = append(out, f)
	}
	return out
}

// Update runs the per-tick flag rules: pickups, returns, captures,
// and the dropped-flag timeout.
func (m *CaptureTheFlag) Update(deltaTime float64) {
	if m.logic.Phase() != PhaseInProgress {
		return
	}
	for _, flag := range m.flags {
		switch {
		case flag.Carried():
			m.checkCapture(flag)
		case flag.Dropped():
			flag.dropTimer -= deltaTime
			if flag.dropTimer <= 0 {
				m.returnFlag(flag, entity.None)
				continue
			}
			m.checkContact(flag)
		default:
			m.checkContact(flag)
		}
	}
}

// checkContact handles a stationary flag being touched: an enemy tank
// steals it, a friendly tank returns a dropped one.
func (m *CaptureTheFlag) checkContact(flag *Flag) {
	reg := m.logic.Registry()
	for _, raw := range reg.Spatial.OverlapCircle(flag.Position, flagTouchRadius, physics.LayerVehicle) {
		tank, ok := m.tankByEntity(entity.ID(raw))
		if !ok || tank.IsDead() {
			continue
		}
		if tank.TeamID == flag.TeamID {
			if flag.Dropped() {
				m.returnFlag(flag, tank.ID)
				return
			}
			continue
		}
		m.pickUp(flag, tank)
		return
	}
}

func (m *CaptureTheFlag) pickUp(flag *Flag, tank *entity.Tank) {
	rack, ok := m.racks[tank.ID]
	if !ok {
		rack = entity.NewCarrier(m.logic.Registry(), m.logic.Bus(), tank.ID, []entity.AttachPoint{
			{Name: "flag_rack", Offset: physics.Vector2D{Y: -1.5}},
		})
		m.racks[tank.ID] = rack
	}
	if !rack.Attach(flag.ID, "flag_rack") {
		return
	}
	flag.CarrierTank = tank.ID
	m.logic.Bus().Publish(event.NewFlagEvent(event.FlagPickedUp, m, uint64(flag.ID), flag.TeamID, uint64(tank.ID), tank.TeamID))
}

// checkCapture scores when the carrier reaches their own stand while
// their team's flag is home.
func (m *CaptureTheFlag) checkCapture(flag *Flag) {
	reg := m.logic.Registry()
	tank, ok := m.tankByEntity(flag.CarrierTank)
	if !ok {
		// Carrier vanished without a death event, drop in place
		m.drop(flag, reg.WorldPosition(flag.ID))
		return
	}

	ownFlag, ok := m.flags[tank.TeamID]
	if !ok {
		return
	}
	stand := m.stands[tank.TeamID]
	if tank.Position.Distance(stand) > flagTouchRadius {
		return
	}
	if !ownFlag.AtHome() {
		return
	}

	m.detach(flag)
	captured := flag.TeamID
	m.returnFlag(flag, tank.ID)
	m.logic.Teams().AddScore(tank.TeamID, flagCapturePoint)
	m.logic.Bus().Publish(event.NewFlagEvent(event.FlagCaptured, m, uint64(flag.ID), captured, uint64(tank.ID), tank.TeamID))
}

// onCarrierDied drops the flag where the carrier was destroyed. The
// death event arrives before the despawn, so the carrier's transform
// is still resolvable.
func (m *CaptureTheFlag) onCarrierDied(e event.Event) {
	de := e.(*event.DeathEvent)
	dead := entity.ID(de.EntityID)
	for _, flag := range m.flags {
		if flag.CarrierTank != dead {
			continue
		}
		at := m.logic.Registry().WorldPosition(flag.ID)
		if rack, ok := m.racks[dead]; ok {
			rack.RemoveForDespawn(flag.ID)
			delete(m.racks, dead)
		}
		m.drop(flag, at)
	}
}

func (m *CaptureTheFlag) drop(flag *Flag, at physics.Vector2D) {
	flag.CarrierTank = entity.None
	flag.ParentID = entity.None
	flag.Position = at
	flag.Collider.Center = at
	flag.dropTimer = flagReturnTime
	m.logic.Registry().Spatial.Move(uint64(flag.ID), at)
}

// detach unmounts a carried flag from its rack
func (m *CaptureTheFlag) detach(flag *Flag) {
	if rack, ok := m.racks[flag.CarrierTank]; ok {
		rack.Remove(flag.ID)
	}
	flag.CarrierTank = entity.None
}

func (m *CaptureTheFlag) returnFlag(flag *Flag, by entity.ID) {
	m.detach(flag)
	byTeam := -1
	if tank, ok := m.tankByEntity(by); ok {
		byTeam = tank.TeamID
	}
	flag.ParentID = entity.None
	flag.Position = flag.Home
	flag.Collider.Center = flag.Home
	flag.dropTimer = 0
	m.logic.Registry().Spatial.Move(uint64(flag.ID), flag.Home)
	m.logic.Bus().Publish(event.NewFlagEvent(event.FlagReturned, m, uint64(flag.ID), flag.TeamID, uint64(by), byTeam))
}

func (m *CaptureTheFlag) tankByEntity(id entity.ID) (*entity.Tank, bool) {
	e, ok := m.logic.Registry().Get(id)
	if !ok {
		return nil, false
	}
	t, ok := e.(*entity.Tank)
	return t, ok
}
