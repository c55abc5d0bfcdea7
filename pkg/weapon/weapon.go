// pkg/weapon/weapon.go
package weapon

import (
	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
	"github.com/opd-ai/go-tankwar/pkg/replica"
)

// Phase enumerates weapon states shared by all weapon types
type Phase int

const (
	PhaseNone Phase = iota
	PhaseDeactivated
	PhaseActivating
	PhaseActivated
	PhaseFiring
	PhaseReloading
	PhaseDeactivating
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseDeactivated:
		return "deactivated"
	case PhaseActivating:
		return "activating"
	case PhaseActivated:
		return "activated"
	case PhaseFiring:
		return "firing"
	case PhaseReloading:
		return "reloading"
	case PhaseDeactivating:
		return "deactivating"
	}
	return "unknown"
}

// Timing shared by all weapons
const (
	ActivationTime = 1.5
	ReloadTime     = 1.0
)

// Mount ties a weapon to the tank carrying it and the world it fires
// into.
type Mount struct {
	Tank     *entity.Tank
	Registry *entity.Registry
	Bus      *event.Bus
	Auth     *replica.Authority
}

// Weapon is the common core of all weapon types: the phase machine,
// the request latches the owner sets, and the firing plumbing the
// authority consumes. Owners request, the authority executes.
type Weapon struct {
	Name  string
	Mount Mount

	ProjectileSpeed  float64
	ProjectileDamage float64
	ProjectileRange  float64
	RecoilImpulse    float64

	machine *Machine[Phase]
	owned   bool

	fireRequested bool
	wantActive    bool

	timer     float64
	firedTick bool
}

// Request latches. Only meaningful from the owning player; the
// authority reads them during phase transitions.

// RequestFire latches a fire request for the next window
func (w *Weapon) RequestFire() {
	w.fireRequested = true
}

// RequestActivate asks the weapon to ready itself
func (w *Weapon) RequestActivate() {
	w.wantActive = true
}

// RequestDeactivate asks the weapon to stow
func (w *Weapon) RequestDeactivate() {
	w.wantActive = false
}

// Phase returns the current weapon phase
func (w *Weapon) Phase() Phase {
	return w.machine.Current()
}

// SetOwned switches between the owner simulation path and the remote
// observation path. The phase machine keeps its current state across
// the switch.
func (w *Weapon) SetOwned(owned bool) {
	w.owned = owned
	if !owned {
		// A remote weapon never keeps stale intent
		w.fireRequested = false
	}
}

// Owned reports whether the local side owns this weapon
func (w *Weapon) Owned() bool {
	return w.owned
}

// Update advances the weapon. The authority and the owner run the
// phase machine; a remote observer only mirrors replicated phase and
// has nothing to simulate.
func (w *Weapon) Update(deltaTime float64) {
	if !w.Mount.Auth.IsServer() && !w.owned {
		return
	}
	w.machine.Update(deltaTime)
}

// fire spawns the projectile and publishes WeaponFired. Runs on the
// authority only, from a Firing state's Enter hook.
func (w *Weapon) fire(turnRate float64, targetID entity.ID) {
	if !w.Mount.Auth.IsServer() {
		return
	}
	tank := w.Mount.Tank
	heading := tank.Vehicle.TurretHeading
	muzzle := tank.Position.Add(physics.FromAngle(heading, tank.Stats.Radius+1))

	proj := entity.NewProjectile(w.Mount.Registry, tank.ID, tank.OwnerID, tank.TeamID,
		muzzle, heading, w.ProjectileSpeed, w.ProjectileDamage, w.ProjectileRange, w.Name)
	proj.TurnRate = turnRate
	proj.TargetID = targetID
	id := w.Mount.Registry.Spawn(proj, physics.LayerProjectile)

	if w.RecoilImpulse > 0 {
		tank.Vehicle.ApplyImpulse(physics.FromAngle(heading, -w.RecoilImpulse))
	}

	w.Mount.Bus.Publish(event.NewWeaponEvent(w, uint64(tank.ID), uint64(id), tank.OwnerID, w.Name))
}
