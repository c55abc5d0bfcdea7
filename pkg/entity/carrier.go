// pkg/entity/carrier.go
package entity

import (
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
)

// AttachPoint is a named mount location on a carrier, offset in the
// carrier's local space.
type AttachPoint struct {
	Name   string
	Offset physics.Vector2D
}

// Carrier manages entities mounted on another entity, such as a flag
// on a tank's hull rack. It keeps three views in step: occupant by
// point, point by name, and the membership set.
type Carrier struct {
	entityID ID
	registry *Registry
	bus      *event.Bus

	points     map[string]AttachPoint
	byPoint    map[string]ID // point name -> occupant
	pointOf    map[ID]string // occupant -> point name
	members    map[ID]struct{}
	prevParent map[ID]ID
}

// NewCarrier creates a carrier for a registered entity with the given
// mount points.
func NewCarrier(registry *Registry, bus *event.Bus, entityID ID, points []AttachPoint) *Carrier {
	c := &Carrier{
		entityID:   entityID,
		registry:   registry,
		bus:        bus,
		points:     make(map[string]AttachPoint),
		byPoint:    make(map[string]ID),
		pointOf:    make(map[ID]string),
		members:    make(map[ID]struct{}),
		prevParent: make(map[ID]ID),
	}
	for _, p := range points {
		c.points[p.Name] = p
	}
	return c
}

// Attach mounts a carryable on the named point. Fails if the point is
// unknown, occupied, or the carryable is already mounted.
func (c *Carrier) Attach(carryableID ID, pointName string) bool {
	if !c.registry.auth.IsServer() {
		return false
	}
	point, ok := c.points[pointName]
	if !ok {
		return false
	}
	if _, occupied := c.byPoint[pointName]; occupied {
		return false
	}
	if _, already := c.members[carryableID]; already {
		return false
	}
	e, ok := c.registry.Get(carryableID)
	if !ok {
		return false
	}

	prev := e.(based).Base().ParentID
	if !c.registry.SetParent(carryableID, c.entityID) {
		return false
	}
	// Snap to the mount point in carrier local space
	e.(based).Base().Position = point.Offset

	c.byPoint[pointName] = carryableID
	c.pointOf[carryableID] = pointName
	c.members[carryableID] = struct{}{}
	c.prevParent[carryableID] = prev

	c.bus.Publish(event.NewCarryEvent(event.CarryAttached, c, uint64(c.entityID), uint64(carryableID), pointName))
	return true
}

// Remove unmounts a carryable, restoring its previous parent. Removing
// something that is not mounted counts as success.
func (c *Carrier) Remove(carryableID ID) bool {
	return c.remove(carryableID, false)
}

// RemoveForDespawn unmounts a carryable whose transform is going away,
// skipping the reparent restore.
func (c *Carrier) RemoveForDespawn(carryableID ID) bool {
	return c.remove(carryableID, true)
}

func (c *Carrier) remove(carryableID ID, despawning bool) bool {
	if !c.registry.auth.IsServer() {
		return false
	}
	pointName, ok := c.pointOf[carryableID]
	if !ok {
		// Already removed, report success
		return true
	}

	if !despawning {
		c.registry.ClearParent(carryableID)
		if prev, ok := c.prevParent[carryableID]; ok && prev != None && c.registry.Contains(prev) {
			c.registry.SetParent(carryableID, prev)
		}
	}

	delete(c.byPoint, pointName)
	delete(c.pointOf, carryableID)
	delete(c.members, carryableID)
	delete(c.prevParent, carryableID)

	c.bus.Publish(event.NewCarryEvent(event.CarryRemoved, c, uint64(c.entityID), uint64(carryableID), pointName))
	return true
}

// Carries reports whether the carryable is mounted on this carrier
func (c *Carrier) Carries(carryableID ID) bool {
	_, ok := c.members[carryableID]
	return ok
}

// OccupantAt returns the occupant of a named point
func (c *Carrier) OccupantAt(pointName string) (ID, bool) {
	id, ok := c.byPoint[pointName]
	return id, ok
}

// FreePoint returns the name of an unoccupied mount point
func (c *Carrier) FreePoint() (string, bool) {
	for name := range c.points {
		if _, occupied := c.byPoint[name]; !occupied {
			return name, true
		}
	}
	return "", false
}

// Occupants returns the mounted carryable ids
func (c *Carrier) Occupants() []ID {
	out := make([]ID, 0, len(c.members))
	for id := range c.members {
		out = append(out, id)
	}
	return out
}

// EntityID returns the carrier's owning entity
func (c *Carrier) EntityID() ID {
	return c.entityID
}
