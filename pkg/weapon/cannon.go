// pkg/weapon/cannon.go
package weapon

import (
	"github.com/opd-ai/go-tankwar/pkg/entity"
)

// Cannon is the direct-fire main gun. Its phase cycle is
// None -> Deactivated -> Activating -> Activated -> Firing ->
// Reloading -> Activated, with Deactivated reachable from the ready
// states when the player stows the gun.
type Cannon struct {
	Weapon
}

// NewCannon creates a stowed cannon on a mount
func NewCannon(mount Mount) *Cannon {
	c := &Cannon{
		Weapon: Weapon{
			Name:             "cannon",
			Mount:            mount,
			ProjectileSpeed:  180,
			ProjectileDamage: 34,
			ProjectileRange:  400,
			RecoilImpulse:    6,
		},
	}
	c.machine = NewMachine(PhaseNone)
	c.registerStates()
	c.machine.Start()
	return c
}

func (c *Cannon) registerStates() {
	m := c.machine

	m.Register(PhaseNone, StateHooks[Phase]{
		Next: func() (Phase, bool) {
			return PhaseDeactivated, true
		},
	})

	m.Register(PhaseDeactivated, StateHooks[Phase]{
		Enter: func() {
			c.fireRequested = false
		},
		Next: func() (Phase, bool) {
			if c.wantActive {
				return PhaseActivating, true
			}
			return PhaseNone, false
		},
	})

	m.Register(PhaseActivating, StateHooks[Phase]{
		Enter: func() {
			c.timer = ActivationTime
			c.fireRequested = false
		},
		Update: func(dt float64) {
			c.timer -= dt
		},
		Next: func() (Phase, bool) {
			if !c.wantActive {
				return PhaseDeactivated, true
			}
			if c.timer <= 0 {
				return PhaseActivated, true
			}
			return PhaseNone, false
		},
	})

	m.Register(PhaseActivated, StateHooks[Phase]{
		Next: func() (Phase, bool) {
			if !c.wantActive {
				return PhaseDeactivated, true
			}
			if c.fireRequested {
				return PhaseFiring, true
			}
			return PhaseNone, false
		},
	})

	m.Register(PhaseFiring, StateHooks[Phase]{
		Enter: func() {
			c.fireRequested = false
			c.firedTick = false
			c.fire(0, entity.None)
		},
		Update: func(dt float64) {
			c.firedTick = true
		},
		Next: func() (Phase, bool) {
			if c.firedTick {
				return PhaseReloading, true
			}
			return PhaseNone, false
		},
	})

	m.Register(PhaseReloading, StateHooks[Phase]{
		Enter: func() {
			c.timer = ReloadTime
			c.fireRequested = false
		},
		Update: func(dt float64) {
			c.timer -= dt
		},
		Next: func() (Phase, bool) {
			if c.timer <= 0 {
				if c.wantActive {
					return PhaseActivated, true
				}
				return PhaseDeactivated, true
			}
			return PhaseNone, false
		},
	})
}
