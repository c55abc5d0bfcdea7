// pkg/weapon/launcher.go
package weapon

import (
	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
)

// Targeting constants for the guided launcher. The angle limit is a
// deviation threshold on (1 - dot) between the turret forward vector
// and the direction to the candidate: 0 is dead ahead, larger values
// widen the cone.
const (
	MaxTargetingDistance  = 300.0
	TargetAcquisitionTime = 2.0
	MaxTargetingAngle     = 0.20
)

// GuidedLauncher fires homing missiles at a locked target. A lock
// requires an enemy vehicle to stay in range, inside the targeting
// cone, and in line of sight continuously for the full acquisition
// time; breaking any condition resets the progress and the candidate.
// It adds a Deactivating phase that drops the lock before stowing.
type GuidedLauncher struct {
	Weapon

	candidate entity.ID
	progress  float64
	lock      entity.ID
}

// NewGuidedLauncher creates a stowed launcher on a mount
func NewGuidedLauncher(mount Mount) *GuidedLauncher {
	l := &GuidedLauncher{
		Weapon: Weapon{
			Name:             "guided_launcher",
			Mount:            mount,
			ProjectileSpeed:  90,
			ProjectileDamage: 55,
			ProjectileRange:  450,
		},
	}
	l.machine = NewMachine(PhaseNone)
	l.registerStates()
	l.machine.Start()
	return l
}

// Lock returns the locked target, None when unlocked
func (l *GuidedLauncher) Lock() entity.ID {
	return l.lock
}

// AcquisitionProgress reports lock progress in [0, 1]
func (l *GuidedLauncher) AcquisitionProgress() float64 {
	if l.lock != entity.None {
		return 1
	}
	return l.progress / TargetAcquisitionTime
}

func (l *GuidedLauncher) registerStates() {
	m := l.machine

	m.Register(PhaseNone, StateHooks[Phase]{
		Next: func() (Phase, bool) {
			return PhaseDeactivated, true
		},
	})

	m.Register(PhaseDeactivated, StateHooks[Phase]{
		Enter: func() {
			l.fireRequested = false
		},
		Next: func() (Phase, bool) {
			if l.wantActive {
				return PhaseActivating, true
			}
			return PhaseNone, false
		},
	})

	m.Register(PhaseActivating, StateHooks[Phase]{
		Enter: func() {
			l.timer = ActivationTime
			l.fireRequested = false
		},
		Update: func(dt float64) {
			l.timer -= dt
		},
		Next: func() (Phase, bool) {
			if !l.wantActive {
				return PhaseDeactivating, true
			}
			if l.timer <= 0 {
				return PhaseActivated, true
			}
			return PhaseNone, false
		},
	})

	m.Register(PhaseActivated, StateHooks[Phase]{
		Enter: func() {
			l.resetAcquisition()
		},
		Update: l.updateAcquisition,
		Next: func() (Phase, bool) {
			if !l.wantActive {
				return PhaseDeactivating, true
			}
			if l.fireRequested && l.lock != entity.None {
				return PhaseFiring, true
			}
			return PhaseNone, false
		},
	})

	m.Register(PhaseFiring, StateHooks[Phase]{
		Enter: func() {
			l.fireRequested = false
			l.firedTick = false
			l.fire(2.5, l.lock)
			l.lock = entity.None
		},
		Update: func(dt float64) {
			l.firedTick = true
		},
		Next: func() (Phase, bool) {
			if l.firedTick {
				return PhaseReloading, true
			}
			return PhaseNone, false
		},
	})

	m.Register(PhaseReloading, StateHooks[Phase]{
		Enter: func() {
			l.timer = ReloadTime
			l.fireRequested = false
		},
		Update: func(dt float64) {
			l.timer -= dt
		},
		Next: func() (Phase, bool) {
			if l.timer <= 0 {
				if l.wantActive {
					return PhaseActivated, true
				}
				return PhaseDeactivating, true
			}
			return PhaseNone, false
		},
	})

	m.Register(PhaseDeactivating, StateHooks[Phase]{
		Enter: func() {
			l.resetAcquisition()
		},
		Next: func() (Phase, bool) {
			return PhaseDeactivated, true
		},
	})
}

func (l *GuidedLauncher) resetAcquisition() {
	l.candidate = entity.None
	l.progress = 0
	l.lock = entity.None
}

// updateAcquisition advances the lock timer while a single candidate
// keeps satisfying range, cone, and line of sight.
func (l *GuidedLauncher) updateAcquisition(dt float64) {
	if !l.Mount.Auth.IsServer() {
		return
	}
	if l.lock != entity.None {
		// A held lock still has to remain valid
		if !l.targetValid(l.lock) {
			l.resetAcquisition()
		}
		return
	}

	best := l.bestCandidate()
	if best == entity.None {
		l.candidate = entity.None
		l.progress = 0
		return
	}
	if best != l.candidate {
		// Candidate changed, acquisition starts over
		l.candidate = best
		l.progress = 0
	}
	l.progress += dt
	if l.progress >= TargetAcquisitionTime {
		l.lock = l.candidate
		l.Mount.Bus.Publish(event.NewEntityEvent(event.TargetLocked, l, uint64(l.lock), l.Mount.Tank.TeamID))
	}
}

// bestCandidate returns the valid enemy vehicle most aligned with the
// turret's forward vector. Range, cone, and line of sight gate the
// candidates; alignment picks among them.
func (l *GuidedLauncher) bestCandidate() entity.ID {
	tank := l.Mount.Tank
	origin := tank.Position
	forward := tank.Vehicle.TurretForward()

	best := entity.None
	bestDot := -1.0
	for _, raw := range l.Mount.Registry.Spatial.OverlapCircle(origin, MaxTargetingDistance, physics.LayerVehicle) {
		id := entity.ID(raw)
		if id == tank.ID {
			continue
		}
		if !l.targetValid(id) {
			continue
		}
		dot := forward.Dot(l.Mount.Registry.WorldPosition(id).Sub(origin).Normalize())
		if dot > bestDot {
			best = id
			bestDot = dot
		}
	}
	return best
}

// targetValid checks range, team, targeting cone, and line of sight
// for one candidate.
func (l *GuidedLauncher) targetValid(id entity.ID) bool {
	tank := l.Mount.Tank
	reg := l.Mount.Registry

	e, ok := reg.Get(id)
	if !ok {
		return false
	}
	other, ok := e.(*entity.Tank)
	if !ok || other.IsDead() {
		return false
	}
	if other.TeamID == tank.TeamID {
		return false
	}

	origin := tank.Position
	pos := reg.WorldPosition(id)
	offset := pos.Sub(origin)
	dist := offset.Length()
	if dist > MaxTargetingDistance {
		return false
	}
	if dist > 0 {
		deviation := 1 - tank.Vehicle.TurretForward().Dot(offset.Normalize())
		if deviation > MaxTargetingAngle {
			return false
		}
	}
	if reg.Spatial.LineBlocked(origin, pos, physics.LayerWorld, uint64(tank.ID), uint64(id)) {
		return false
	}
	return true
}
