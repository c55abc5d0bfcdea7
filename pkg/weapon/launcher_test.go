// pkg/weapon/launcher_test.go
package weapon

import (
	"testing"

	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
	"github.com/opd-ai/go-tankwar/pkg/replica"
)

// launcherFixture builds a ready launcher with one enemy tank dead
// ahead of the turret at the given distance.
func launcherFixture(t *testing.T, enemyDist float64) (*GuidedLauncher, *entity.Tank, *entity.Registry, *event.Bus) {
	t.Helper()
	auth := replica.NewAuthority(replica.RoleServer)
	bus := event.NewBus()
	reg := entity.NewRegistry(auth, bus)

	shooter := entity.NewTank(auth, bus, reg, 1, 0, physics.Vector2D{}, entity.DefaultTankStats())
	reg.Spawn(shooter, physics.LayerVehicle)

	enemy := entity.NewTank(auth, bus, reg, 2, 1, physics.Vector2D{X: enemyDist}, entity.DefaultTankStats())
	reg.Spawn(enemy, physics.LayerVehicle)

	l := NewGuidedLauncher(Mount{Tank: shooter, Registry: reg, Bus: bus, Auth: auth})
	l.RequestActivate()
	stepSeconds(l, ActivationTime)
	if l.Phase() != PhaseActivated {
		t.Fatalf("Expected launcher activated, got %v", l.Phase())
	}
	return l, enemy, reg, bus
}

func TestLauncherAcquiresAfterFullDuration(t *testing.T) {
	l, enemy, _, bus := launcherFixture(t, 100)

	var locked []uint64
	bus.Subscribe(event.TargetLocked, func(e event.Event) {
		locked = append(locked, e.(*event.EntityEvent).EntityID)
	})

	// Halfway there, no lock yet
	stepSeconds(l, TargetAcquisitionTime/2)
	if l.Lock() != entity.None {
		t.Fatal("Expected no lock at half the acquisition time")
	}
	if l.AcquisitionProgress() <= 0 {
		t.Error("Expected acquisition progress underway")
	}

	stepSeconds(l, TargetAcquisitionTime/2)
	if l.Lock() != enemy.ID {
		t.Fatalf("Expected lock on enemy %d, got %d", enemy.ID, l.Lock())
	}
	if len(locked) != 1 || locked[0] != uint64(enemy.ID) {
		t.Errorf("Expected one lock event for the enemy, got %v", locked)
	}
}

func TestLauncherIgnoresTargetsBeyondRange(t *testing.T) {
	l, _, _, _ := launcherFixture(t, MaxTargetingDistance+50)

	stepSeconds(l, TargetAcquisitionTime*2)
	if l.Lock() != entity.None {
		t.Error("Expected no lock beyond targeting range")
	}
}

func TestLauncherIgnoresTargetsOutsideCone(t *testing.T) {
	l, enemy, reg, _ := launcherFixture(t, 100)

	// Move the enemy well off the turret axis
	enemy.Position = physics.Vector2D{X: 0, Y: 100}
	reg.Spatial.Move(uint64(enemy.ID), enemy.Position)

	stepSeconds(l, TargetAcquisitionTime*2)
	if l.Lock() != entity.None {
		t.Error("Expected no lock outside the targeting cone")
	}
}

func TestLauncherAcquisitionResetsWhenLineOfSightBreaks(t *testing.T) {
	l, _, reg, _ := launcherFixture(t, 100)

	stepSeconds(l, TargetAcquisitionTime*0.75)
	if l.Lock() != entity.None {
		t.Fatal("Expected no lock yet")
	}

	// Drop a wall between shooter and target
	reg.Spatial.Insert(9999, physics.Vector2D{X: 50}, 5, physics.LayerWorld)
	l.Update(tick)

	if l.AcquisitionProgress() != 0 {
		t.Errorf("Expected acquisition reset after losing sight, progress %v", l.AcquisitionProgress())
	}

	// Clearing the wall starts acquisition over from zero
	reg.Spatial.Remove(9999)
	stepSeconds(l, TargetAcquisitionTime*0.75)
	if l.Lock() != entity.None {
		t.Error("Expected partial progress not to carry over the interruption")
	}
	stepSeconds(l, TargetAcquisitionTime*0.3)
	if l.Lock() == entity.None {
		t.Error("Expected lock after a fresh uninterrupted acquisition")
	}
}

func TestLauncherAcquisitionRestartsOnCandidateChange(t *testing.T) {
	l, enemy, reg, _ := launcherFixture(t, 100)

	// Push the original enemy off the turret axis, still in the cone
	enemy.Position = physics.Vector2D{X: 90, Y: 40}
	reg.Spatial.Move(uint64(enemy.ID), enemy.Position)

	stepSeconds(l, TargetAcquisitionTime*0.75)

	// A better-aligned enemy appears dead ahead
	aligned := entity.NewTank(replica.NewAuthority(replica.RoleServer), l.Mount.Bus, reg, 3, 1, physics.Vector2D{X: 40}, entity.DefaultTankStats())
	reg.Spawn(aligned, physics.LayerVehicle)

	stepSeconds(l, TargetAcquisitionTime*0.5)
	if l.Lock() != entity.None {
		t.Error("Expected candidate switch to restart acquisition")
	}

	stepSeconds(l, TargetAcquisitionTime*0.6)
	if l.Lock() != aligned.ID {
		t.Errorf("Expected lock on aligned enemy %d, got %d (original %d)", aligned.ID, l.Lock(), enemy.ID)
	}
}

func TestLauncherPrefersMostAlignedTarget(t *testing.T) {
	l, enemy, reg, _ := launcherFixture(t, 120)

	// A nearer enemy inside the cone but off the turret axis must not
	// steal the lock from the one dead ahead.
	near := entity.NewTank(replica.NewAuthority(replica.RoleServer), l.Mount.Bus, reg, 3, 1, physics.Vector2D{X: 45, Y: 20}, entity.DefaultTankStats())
	reg.Spawn(near, physics.LayerVehicle)

	stepSeconds(l, TargetAcquisitionTime)
	if l.Lock() != enemy.ID {
		t.Errorf("Expected lock on the aligned enemy %d, got %d (near %d)", enemy.ID, l.Lock(), near.ID)
	}
}

func TestLauncherFiresGuidedRoundAtLock(t *testing.T) {
	l, enemy, reg, bus := launcherFixture(t, 100)

	var fired *event.WeaponEvent
	bus.Subscribe(event.WeaponFired, func(e event.Event) {
		fired = e.(*event.WeaponEvent)
	})

	stepSeconds(l, TargetAcquisitionTime)
	if l.Lock() != enemy.ID {
		t.Fatal("Expected lock before firing")
	}

	l.RequestFire()
	l.Update(tick)

	if l.Phase() != PhaseFiring {
		t.Fatalf("Expected firing, got %v", l.Phase())
	}
	if fired == nil {
		t.Fatal("Expected a fire event")
	}
	proj, ok := reg.Get(entity.ID(fired.ProjectileID))
	if !ok {
		t.Fatal("Expected projectile registered")
	}
	round := proj.(*entity.Projectile)
	if round.TargetID != enemy.ID {
		t.Errorf("Expected round homing on %d, got %d", enemy.ID, round.TargetID)
	}
	if round.TurnRate <= 0 {
		t.Error("Expected a guided round with a turn rate")
	}
	if l.Lock() != entity.None {
		t.Error("Expected lock cleared after firing")
	}
}

func TestLauncherFireRequestWithoutLockDoesNothing(t *testing.T) {
	l, _, _, bus := launcherFixture(t, MaxTargetingDistance+50)

	fireCount := 0
	bus.Subscribe(event.WeaponFired, func(e event.Event) { fireCount++ })

	l.RequestFire()
	stepSeconds(l, 1)

	if fireCount != 0 {
		t.Error("Expected no fire without a lock")
	}
	if l.Phase() != PhaseActivated {
		t.Errorf("Expected launcher to stay ready, got %v", l.Phase())
	}
}

func TestLauncherDeactivatingClearsLock(t *testing.T) {
	l, _, _, _ := launcherFixture(t, 100)

	stepSeconds(l, TargetAcquisitionTime)
	if l.Lock() == entity.None {
		t.Fatal("Expected lock")
	}

	l.RequestDeactivate()
	l.Update(tick)

	if l.Phase() != PhaseDeactivated {
		t.Errorf("Expected deactivated, got %v", l.Phase())
	}
	if l.Lock() != entity.None {
		t.Error("Expected lock dropped while deactivating")
	}
}
