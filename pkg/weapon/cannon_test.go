// pkg/weapon/cannon_test.go
package weapon

import (
	"testing"

	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
	"github.com/opd-ai/go-tankwar/pkg/replica"
)

const tick = 1.0 / 60

func newMount(t *testing.T) (Mount, *entity.Registry, *event.Bus) {
	t.Helper()
	auth := replica.NewAuthority(replica.RoleServer)
	bus := event.NewBus()
	reg := entity.NewRegistry(auth, bus)

	tank := entity.NewTank(auth, bus, reg, 1, 0, physics.Vector2D{}, entity.DefaultTankStats())
	reg.Spawn(tank, physics.LayerVehicle)

	return Mount{Tank: tank, Registry: reg, Bus: bus, Auth: auth}, reg, bus
}

func stepSeconds(w interface{ Update(float64) }, seconds float64) {
	steps := int(seconds/tick) + 2
	for i := 0; i < steps; i++ {
		w.Update(tick)
	}
}

func TestCannonStartsDeactivated(t *testing.T) {
	mount, _, _ := newMount(t)
	c := NewCannon(mount)

	if c.Phase() != PhaseDeactivated {
		t.Errorf("Expected new cannon deactivated, got %v", c.Phase())
	}
}

func TestCannonActivationTakesActivationTime(t *testing.T) {
	mount, _, _ := newMount(t)
	c := NewCannon(mount)

	c.RequestActivate()
	c.Update(tick)
	if c.Phase() != PhaseActivating {
		t.Fatalf("Expected activating, got %v", c.Phase())
	}

	// Not ready at half the activation time
	stepSeconds(c, ActivationTime/2)
	if c.Phase() != PhaseActivating {
		t.Errorf("Expected still activating at half time, got %v", c.Phase())
	}

	stepSeconds(c, ActivationTime/2)
	if c.Phase() != PhaseActivated {
		t.Errorf("Expected activated after full time, got %v", c.Phase())
	}
}

func TestCannonFireCycle(t *testing.T) {
	mount, reg, bus := newMount(t)
	c := NewCannon(mount)

	var fired []*event.WeaponEvent
	bus.Subscribe(event.WeaponFired, func(e event.Event) {
		fired = append(fired, e.(*event.WeaponEvent))
	})

	c.RequestActivate()
	stepSeconds(c, ActivationTime)
	if c.Phase() != PhaseActivated {
		t.Fatalf("Expected activated, got %v", c.Phase())
	}

	before := reg.Count()
	c.RequestFire()
	c.Update(tick)

	if c.Phase() != PhaseFiring {
		t.Fatalf("Expected firing, got %v", c.Phase())
	}
	if len(fired) != 1 {
		t.Fatalf("Expected 1 fire event on entering Firing, got %d", len(fired))
	}
	if fired[0].WeaponName != "cannon" || fired[0].OwnerPlayer != 1 {
		t.Errorf("Expected cannon fired by player 1, got %+v", fired[0])
	}
	if reg.Count() != before+1 {
		t.Errorf("Expected a projectile spawned, count %d -> %d", before, reg.Count())
	}

	// Firing lasts exactly one tick, then the reload runs
	c.Update(tick)
	if c.Phase() != PhaseReloading {
		t.Fatalf("Expected reloading after one firing tick, got %v", c.Phase())
	}

	stepSeconds(c, ReloadTime)
	if c.Phase() != PhaseActivated {
		t.Errorf("Expected activated after reload, got %v", c.Phase())
	}
	if len(fired) != 1 {
		t.Errorf("Expected no extra fire events, got %d", len(fired))
	}
}

func TestCannonFireRequestIgnoredWhileNotReady(t *testing.T) {
	mount, _, bus := newMount(t)
	c := NewCannon(mount)

	fireCount := 0
	bus.Subscribe(event.WeaponFired, func(e event.Event) { fireCount++ })

	// Stowed: the request latch is cleared by Deactivated
	c.RequestFire()
	c.Update(tick)
	if fireCount != 0 {
		t.Error("Expected no fire while deactivated")
	}

	c.RequestActivate()
	c.Update(tick)
	if c.Phase() != PhaseActivating {
		t.Fatalf("Expected activating, got %v", c.Phase())
	}
}

func TestCannonDeactivateFromReady(t *testing.T) {
	mount, _, _ := newMount(t)
	c := NewCannon(mount)

	c.RequestActivate()
	stepSeconds(c, ActivationTime)

	c.RequestDeactivate()
	c.Update(tick)

	if c.Phase() != PhaseDeactivated {
		t.Errorf("Expected deactivated, got %v", c.Phase())
	}
}

func TestCannonRecoilPushesOwner(t *testing.T) {
	mount, _, _ := newMount(t)
	c := NewCannon(mount)

	c.RequestActivate()
	stepSeconds(c, ActivationTime)

	mount.Tank.Vehicle.Velocity = physics.Vector2D{}
	c.RequestFire()
	c.Update(tick)

	// Turret faces +X, recoil pushes -X
	if mount.Tank.Vehicle.Velocity.X >= 0 {
		t.Errorf("Expected recoil velocity opposite the turret, got %v", mount.Tank.Vehicle.Velocity)
	}
}

func TestWeaponClientDoesNotSimulateUnowned(t *testing.T) {
	auth := replica.NewAuthority(replica.RoleClient)
	bus := event.NewBus()
	serverAuth := replica.NewAuthority(replica.RoleServer)
	reg := entity.NewRegistry(serverAuth, bus)

	tank := entity.NewTank(serverAuth, bus, reg, 1, 0, physics.Vector2D{}, entity.DefaultTankStats())
	reg.Spawn(tank, physics.LayerVehicle)

	c := NewCannon(Mount{Tank: tank, Registry: reg, Bus: bus, Auth: auth})
	c.SetOwned(false)

	c.RequestActivate()
	stepSeconds(c, ActivationTime)

	if c.Phase() != PhaseDeactivated {
		t.Errorf("Expected remote weapon not to advance, got %v", c.Phase())
	}

	// After an ownership transfer the owner path simulates again
	c.SetOwned(true)
	stepSeconds(c, ActivationTime)
	if c.Phase() != PhaseActivated {
		t.Errorf("Expected owned weapon to activate, got %v", c.Phase())
	}
}
