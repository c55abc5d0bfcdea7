// pkg/entity/registry.go
package entity

import (
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
	"github.com/opd-ai/go-tankwar/pkg/replica"
)

// based reaches the embedded BaseEntity of any registered entity
type based interface {
	Base() *BaseEntity
}

// Registry owns the set of live entities. It allocates ids
// monotonically so an id is never reused within a match, keeps the
// spatial index in step with entity positions, and publishes
// lifecycle events.
type Registry struct {
	auth     *replica.Authority
	bus      *event.Bus
	entities map[ID]Entity
	nextID   ID
	Spatial  *physics.SpatialIndex
}

// NewRegistry creates an empty entity registry
func NewRegistry(auth *replica.Authority, bus *event.Bus) *Registry {
	return &Registry{
		auth:     auth,
		bus:      bus,
		entities: make(map[ID]Entity),
		nextID:   1,
		Spatial:  physics.NewSpatialIndex(64),
	}
}

// NextID allocates the next entity id
func (r *Registry) NextID() ID {
	id := r.nextID
	r.nextID++
	return id
}

// Spawn registers an entity, indexes it spatially, and publishes
// EntitySpawned. Only the server may spawn; client calls are dropped.
func (r *Registry) Spawn(e Entity, layer physics.Layer) ID {
	if !r.auth.IsServer() {
		return None
	}
	base := e.(based).Base()
	if base.ID == None {
		base.ID = r.NextID()
	}
	base.Active = true
	r.entities[base.ID] = e
	r.Spatial.Insert(uint64(base.ID), base.Position, base.Collider.Radius, layer)
	r.bus.Publish(event.NewEntityEvent(event.EntitySpawned, r, uint64(base.ID), base.TeamID))
	return base.ID
}

// Despawn removes an entity and publishes EntityDespawned. Despawning
// an unknown or already removed id is a no-op.
func (r *Registry) Despawn(id ID) {
	if !r.auth.IsServer() {
		return
	}
	e, ok := r.entities[id]
	if !ok {
		return
	}
	base := e.(based).Base()
	base.Active = false

	// Children of a despawned entity lose their parent without a
	// transform restore; the parent transform no longer exists.
	for _, child := range r.entities {
		cb := child.(based).Base()
		if cb.ParentID == id {
			cb.ParentID = None
		}
	}

	delete(r.entities, id)
	r.Spatial.Remove(uint64(id))
	r.bus.Publish(event.NewEntityEvent(event.EntityDespawned, r, uint64(id), base.TeamID))
}

// Get returns a registered entity
func (r *Registry) Get(id ID) (Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// Contains reports whether an entity is still live
func (r *Registry) Contains(id ID) bool {
	_, ok := r.entities[id]
	return ok
}

// Count returns the number of live entities
func (r *Registry) Count() int {
	return len(r.entities)
}

// ForEach visits every live entity. The order is unspecified.
func (r *Registry) ForEach(fn func(Entity)) {
	for _, e := range r.entities {
		fn(e)
	}
}

// TransferOwnership reassigns the owning player of an entity and
// publishes OwnershipChanged so components can rebind their owner
// and non-owner behavior paths.
func (r *Registry) TransferOwnership(id ID, newOwner int) {
	if !r.auth.IsServer() {
		return
	}
	e, ok := r.entities[id]
	if !ok {
		return
	}
	base := e.(based).Base()
	if base.OwnerID == newOwner {
		return
	}
	old := base.OwnerID
	base.OwnerID = newOwner
	r.bus.Publish(event.NewOwnershipEvent(r, uint64(id), old, newOwner))
}

// SetParent attaches child to parent, snapping the child's local
// position to the parent origin.
func (r *Registry) SetParent(childID, parentID ID) bool {
	child, ok := r.entities[childID]
	if !ok {
		return false
	}
	if _, ok := r.entities[parentID]; !ok {
		return false
	}
	base := child.(based).Base()
	base.ParentID = parentID
	base.Position = physics.Vector2D{}
	base.Velocity = physics.Vector2D{}
	return true
}

// ClearParent detaches child, converting its position back to world
// space at the parent's location.
func (r *Registry) ClearParent(childID ID) {
	child, ok := r.entities[childID]
	if !ok {
		return
	}
	base := child.(based).Base()
	if base.ParentID == None {
		return
	}
	base.Position = r.WorldPosition(childID)
	base.ParentID = None
}

// WorldPosition resolves an entity's position through its parent chain
func (r *Registry) WorldPosition(id ID) physics.Vector2D {
	e, ok := r.entities[id]
	if !ok {
		return physics.Vector2D{}
	}
	base := e.(based).Base()
	pos := base.Position
	parent := base.ParentID
	for parent != None {
		pe, ok := r.entities[parent]
		if !ok {
			break
		}
		pb := pe.(based).Base()
		pos = pos.Add(pb.Position)
		parent = pb.ParentID
	}
	return pos
}

// Update advances every live entity and refreshes the spatial index
func (r *Registry) Update(deltaTime float64) {
	for id, e := range r.entities {
		e.Update(deltaTime)
		if e.(based).Base().ParentID == None {
			r.Spatial.Move(uint64(id), e.GetPosition())
		}
	}
}
