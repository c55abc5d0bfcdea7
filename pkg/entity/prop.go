// pkg/entity/prop.go
package entity

import (
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
	"github.com/opd-ai/go-tankwar/pkg/replica"
)

// DestructibleProp is a world obstacle that can be shot apart. Unlike
// a tank it stays registered when destroyed, switching to a wrecked
// state, and can be reset to intact between rounds.
type DestructibleProp struct {
	BaseEntity
	Health    *Health
	Name      string
	destroyed bool
	bus       *event.Bus
}

// NewDestructibleProp creates an intact prop
func NewDestructibleProp(auth *replica.Authority, bus *event.Bus, name string, position physics.Vector2D, radius, hitPoints float64) *DestructibleProp {
	p := &DestructibleProp{
		BaseEntity: BaseEntity{
			Position: position,
			Collider: physics.Circle{Center: position, Radius: radius},
			OwnerID:  NoOwner,
			TeamID:   -1,
		},
		Name: name,
		bus:  bus,
	}
	p.Health = NewHealth(auth, bus, 0, hitPoints)
	p.Health.OnEmpty(p.destroy)
	return p
}

// Update does nothing, props are static
func (p *DestructibleProp) Update(deltaTime float64) {}

// TakeDamage applies damage to the prop. A wrecked prop absorbs
// nothing further until reset.
func (p *DestructibleProp) TakeDamage(info DamageInfo) float64 {
	if p.destroyed {
		return 0
	}
	if info.Amount < 0 {
		info.Amount = 0
	}
	overflow := p.Health.Damage(info.Amount)
	return info.Amount - overflow
}

func (p *DestructibleProp) destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.bus.Publish(event.NewEntityEvent(event.PropDestroyed, p, uint64(p.ID), p.TeamID))
}

// Destroyed reports whether the prop is wrecked
func (p *DestructibleProp) Destroyed() bool {
	return p.destroyed
}

// Reset restores the prop to intact with full health
func (p *DestructibleProp) Reset() {
	p.destroyed = false
	p.Health.Reset()
}
