// pkg/entity/tank.go
package entity

import (
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
	"github.com/opd-ai/go-tankwar/pkg/replica"
)

// TankStats defines the performance characteristics of a tank
type TankStats struct {
	MaxHull    float64
	Thrust     float64
	TurnRate   float64
	TurretRate float64
	MaxSpeed   float64
	Radius     float64
}

// DefaultTankStats returns the baseline tank loadout
func DefaultTankStats() TankStats {
	return TankStats{
		MaxHull:    100,
		Thrust:     120,
		TurnRate:   1.6,
		TurretRate: 2.4,
		MaxSpeed:   45,
		Radius:     3,
	}
}

// TankInput holds the owning player's control state for one tick
type TankInput struct {
	Throttle   float64
	Steer      float64
	TurretTurn float64
}

// Tank is a player vehicle. Its hull integrity is replicated health;
// when the hull reaches zero the tank dies exactly once, publishing
// the death before it despawns so scoring handlers can still read it.
type Tank struct {
	BaseEntity
	Vehicle physics.VehicleState
	Health  *Health
	Stats   TankStats
	Input   TankInput

	registry *Registry
	bus      *event.Bus
	lastHit  DamageInfo
	dead     bool
}

// NewTank creates a tank for a player at a position
func NewTank(auth *replica.Authority, bus *event.Bus, registry *Registry, ownerPlayer, teamID int, position physics.Vector2D, stats TankStats) *Tank {
	t := &Tank{
		BaseEntity: BaseEntity{
			Position: position,
			Collider: physics.Circle{Center: position, Radius: stats.Radius},
			OwnerID:  ownerPlayer,
			TeamID:   teamID,
		},
		Vehicle: physics.VehicleState{
			Position:   position,
			Thrust:     stats.Thrust,
			TurnRate:   stats.TurnRate,
			TurretRate: stats.TurretRate,
			MaxSpeed:   stats.MaxSpeed,
			Friction:   0.8,
		},
		Stats:    stats,
		registry: registry,
		bus:      bus,
	}
	t.Health = NewHealth(auth, bus, 0, stats.MaxHull)
	t.Health.OnEmpty(t.die)
	return t
}

// Update advances the tank's movement from its current input
func (t *Tank) Update(deltaTime float64) {
	physics.UpdateVehicle(&t.Vehicle, deltaTime, t.Input.Throttle, t.Input.Steer, t.Input.TurretTurn)
	t.Position = t.Vehicle.Position
	t.Rotation = t.Vehicle.HullHeading
	t.Collider.Center = t.Position
}

// TakeDamage applies damage to the hull. A dead tank ignores further
// damage. Returns the amount actually absorbed.
func (t *Tank) TakeDamage(info DamageInfo) float64 {
	if t.dead {
		return 0
	}
	if info.Amount < 0 {
		info.Amount = 0
	}
	t.lastHit = info
	overflow := t.Health.Damage(info.Amount)
	return info.Amount - overflow
}

// HealDamage repairs the hull, returning the amount actually restored
func (t *Tank) HealDamage(amount float64) float64 {
	if t.dead {
		return 0
	}
	rollover := t.Health.Heal(amount)
	if amount < 0 {
		return 0
	}
	return amount - rollover
}

// die runs once on the empty-hull edge. The death event goes out
// before the despawn so handlers still find the tank registered.
func (t *Tank) die() {
	if t.dead {
		return
	}
	t.dead = true
	t.bus.Publish(event.NewDeathEvent(t, uint64(t.ID), uint64(t.lastHit.SourceEntity), t.lastHit.SourcePlayer, t.lastHit.WeaponName))
	t.registry.Despawn(t.ID)
}

// IsDead reports whether the tank has been destroyed
func (t *Tank) IsDead() bool {
	return t.dead
}
