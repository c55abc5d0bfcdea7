// pkg/entity/registry_test.go
package entity

import (
	"testing"

	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
	"github.com/opd-ai/go-tankwar/pkg/replica"
)

func newTestRegistry() (*Registry, *event.Bus, *replica.Authority) {
	auth := replica.NewAuthority(replica.RoleServer)
	bus := event.NewBus()
	return NewRegistry(auth, bus), bus, auth
}

func TestRegistryIDsNeverReused(t *testing.T) {
	reg, _, auth := newTestRegistry()
	bus := event.NewBus()

	t1 := NewTank(auth, bus, reg, 1, 0, physics.Vector2D{}, DefaultTankStats())
	id1 := reg.Spawn(t1, physics.LayerVehicle)
	reg.Despawn(id1)

	t2 := NewTank(auth, bus, reg, 1, 0, physics.Vector2D{}, DefaultTankStats())
	id2 := reg.Spawn(t2, physics.LayerVehicle)

	if id2 <= id1 {
		t.Errorf("Expected new id greater than despawned id %d, got %d", id1, id2)
	}
}

func TestRegistrySpawnDespawnEvents(t *testing.T) {
	reg, bus, auth := newTestRegistry()

	var spawned, despawned []uint64
	bus.Subscribe(event.EntitySpawned, func(e event.Event) {
		spawned = append(spawned, e.(*event.EntityEvent).EntityID)
	})
	bus.Subscribe(event.EntityDespawned, func(e event.Event) {
		despawned = append(despawned, e.(*event.EntityEvent).EntityID)
	})

	tank := NewTank(auth, bus, reg, 1, 0, physics.Vector2D{}, DefaultTankStats())
	id := reg.Spawn(tank, physics.LayerVehicle)

	if len(spawned) != 1 || spawned[0] != uint64(id) {
		t.Errorf("Expected spawn event for %d, got %v", id, spawned)
	}

	reg.Despawn(id)
	reg.Despawn(id) // second despawn is a no-op

	if len(despawned) != 1 {
		t.Errorf("Expected exactly 1 despawn event, got %d", len(despawned))
	}
}

func TestRegistryClientCannotSpawn(t *testing.T) {
	auth := replica.NewAuthority(replica.RoleClient)
	bus := event.NewBus()
	reg := NewRegistry(auth, bus)

	tank := NewTank(auth, bus, reg, 1, 0, physics.Vector2D{}, DefaultTankStats())
	id := reg.Spawn(tank, physics.LayerVehicle)

	if id != None {
		t.Errorf("Expected client spawn rejected, got id %d", id)
	}
	if reg.Count() != 0 {
		t.Errorf("Expected empty registry, got %d entities", reg.Count())
	}
}

func TestRegistryOwnershipTransfer(t *testing.T) {
	reg, bus, auth := newTestRegistry()

	tank := NewTank(auth, bus, reg, 1, 0, physics.Vector2D{}, DefaultTankStats())
	id := reg.Spawn(tank, physics.LayerVehicle)

	var got *event.OwnershipEvent
	calls := 0
	bus.Subscribe(event.OwnershipChanged, func(e event.Event) {
		got = e.(*event.OwnershipEvent)
		calls++
	})

	reg.TransferOwnership(id, 5)
	reg.TransferOwnership(id, 5) // same owner, suppressed

	if calls != 1 {
		t.Fatalf("Expected 1 ownership event, got %d", calls)
	}
	if got.OldOwner != 1 || got.NewOwner != 5 {
		t.Errorf("Expected transfer 1 -> 5, got %d -> %d", got.OldOwner, got.NewOwner)
	}
}

func TestRegistryParentChainPositions(t *testing.T) {
	reg, bus, auth := newTestRegistry()

	parent := NewTank(auth, bus, reg, 1, 0, physics.Vector2D{X: 50, Y: 20}, DefaultTankStats())
	parentID := reg.Spawn(parent, physics.LayerVehicle)

	flag := NewDestructibleProp(auth, bus, "flag", physics.Vector2D{X: 5, Y: 5}, 1, 10)
	flagID := reg.Spawn(flag, physics.LayerPickup)

	if !reg.SetParent(flagID, parentID) {
		t.Fatal("Expected SetParent to succeed")
	}

	// Local position snapped to parent origin
	world := reg.WorldPosition(flagID)
	if world.X != 50 || world.Y != 20 {
		t.Errorf("Expected world position (50, 20), got %v", world)
	}

	reg.ClearParent(flagID)
	if flag.ParentID != None {
		t.Error("Expected parent cleared")
	}
	if flag.Position.X != 50 || flag.Position.Y != 20 {
		t.Errorf("Expected world position preserved after detach, got %v", flag.Position)
	}
}

func TestRegistryDespawnOrphansChildren(t *testing.T) {
	reg, bus, auth := newTestRegistry()

	parent := NewTank(auth, bus, reg, 1, 0, physics.Vector2D{X: 10, Y: 0}, DefaultTankStats())
	parentID := reg.Spawn(parent, physics.LayerVehicle)

	child := NewDestructibleProp(auth, bus, "flag", physics.Vector2D{}, 1, 10)
	childID := reg.Spawn(child, physics.LayerPickup)
	reg.SetParent(childID, parentID)

	reg.Despawn(parentID)

	if child.ParentID != None {
		t.Error("Expected child orphaned after parent despawn")
	}
	if !reg.Contains(childID) {
		t.Error("Expected child still registered")
	}
}
