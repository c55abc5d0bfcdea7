// pkg/entity/entity.go
package entity

import (
	"github.com/opd-ai/go-tankwar/pkg/physics"
)

// ID is a unique identifier for an entity
type ID uint64

// None marks the absence of an entity reference
const None ID = 0

// NoOwner marks an entity not owned by any player
const NoOwner = -1

// Entity is the base interface for all game objects
type Entity interface {
	GetID() ID
	GetPosition() physics.Vector2D
	GetCollider() physics.Circle
	Update(deltaTime float64)
}

// BaseEntity contains common functionality for all entities.
// Position is in world space while the entity is unparented; a
// parented entity keeps a local position relative to its parent.
type BaseEntity struct {
	ID       ID
	Position physics.Vector2D
	Velocity physics.Vector2D
	Rotation float64
	Collider physics.Circle
	Active   bool
	OwnerID  int // player id, NoOwner when server-owned
	TeamID   int
	ParentID ID
}

// GetID returns the entity's unique identifier
func (e *BaseEntity) GetID() ID {
	return e.ID
}

// GetPosition returns the entity's position
func (e *BaseEntity) GetPosition() physics.Vector2D {
	return e.Position
}

// GetCollider returns the entity's collision shape
func (e *BaseEntity) GetCollider() physics.Circle {
	return physics.Circle{
		Center: e.Position,
		Radius: e.Collider.Radius,
	}
}

// Update updates the entity's position based on velocity
func (e *BaseEntity) Update(deltaTime float64) {
	e.Position = e.Position.Add(e.Velocity.Scale(deltaTime))
	e.Collider.Center = e.Position
}

// Base returns the embedded base, letting the registry reach common
// fields through the Entity interface.
func (e *BaseEntity) Base() *BaseEntity {
	return e
}
