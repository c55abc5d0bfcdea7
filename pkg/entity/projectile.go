// pkg/entity/projectile.go
package entity

import (
	"github.com/opd-ai/go-tankwar/pkg/physics"
)

// Projectile is a shell or missile in flight. Shells fly straight;
// missiles with a TargetID steer toward their target every tick.
type Projectile struct {
	BaseEntity
	Damage       float64
	Range        float64
	Speed        float64
	TurnRate     float64 // radians per second, 0 for unguided shells
	TargetID     ID
	ShooterID    ID
	WeaponName   string
	SourcePlayer int

	registry *Registry
	traveled float64
	expired  bool
}

// NewProjectile creates a projectile in flight from a shooter
func NewProjectile(registry *Registry, shooter ID, ownerPlayer, teamID int, position physics.Vector2D, heading float64, speed, damage, maxRange float64, weaponName string) *Projectile {
	return &Projectile{
		BaseEntity: BaseEntity{
			Position: position,
			Velocity: physics.FromAngle(heading, speed),
			Rotation: heading,
			Collider: physics.Circle{Center: position, Radius: 0.5},
			OwnerID:  ownerPlayer,
			TeamID:   teamID,
			ParentID: None,
		},
		Damage:       damage,
		Range:        maxRange,
		Speed:        speed,
		ShooterID:    shooter,
		WeaponName:   weaponName,
		SourcePlayer: ownerPlayer,
		registry:     registry,
	}
}

// Update advances the projectile, steering guided rounds toward their
// target and expiring the round once it exhausts its range.
func (p *Projectile) Update(deltaTime float64) {
	if p.expired {
		return
	}

	if p.TurnRate > 0 && p.TargetID != None {
		if p.registry.Contains(p.TargetID) {
			target := p.registry.WorldPosition(p.TargetID)
			desired := target.Sub(p.Position).Angle()
			diff := physics.NormalizeAngle(desired - p.Rotation)
			maxTurn := p.TurnRate * deltaTime
			if diff > maxTurn {
				diff = maxTurn
			} else if diff < -maxTurn {
				diff = -maxTurn
			}
			p.Rotation = physics.NormalizeAngle(p.Rotation + diff)
			p.Velocity = physics.FromAngle(p.Rotation, p.Speed)
		} else {
			// Target gone, continue straight
			p.TargetID = None
		}
	}

	step := p.Velocity.Scale(deltaTime)
	p.Position = p.Position.Add(step)
	p.Collider.Center = p.Position
	p.traveled += step.Length()
	if p.traveled >= p.Range {
		p.expired = true
	}
}

// Expired reports whether the projectile has exhausted its range
func (p *Projectile) Expired() bool {
	return p.expired
}

// Expire marks the projectile spent, typically after a hit
func (p *Projectile) Expire() {
	p.expired = true
}

// HitInfo builds the damage record this projectile delivers
func (p *Projectile) HitInfo() DamageInfo {
	return DamageInfo{
		Amount:       p.Damage,
		SourceEntity: p.ShooterID,
		SourcePlayer: p.SourcePlayer,
		WeaponName:   p.WeaponName,
	}
}
