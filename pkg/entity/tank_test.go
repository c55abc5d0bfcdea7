// pkg/entity/tank_test.go
package entity

import (
	"testing"

	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
)

func TestTankDiesOnceWithDeathBeforeDespawn(t *testing.T) {
	reg, bus, auth := newTestRegistry()

	tank := NewTank(auth, bus, reg, 3, 1, physics.Vector2D{}, DefaultTankStats())
	id := reg.Spawn(tank, physics.LayerVehicle)
	tank.Health.BindEntity(id)

	var order []string
	var death *event.DeathEvent
	bus.Subscribe(event.EntityDied, func(e event.Event) {
		death = e.(*event.DeathEvent)
		// The dead tank must still be registered during this event
		if !reg.Contains(ID(death.EntityID)) {
			t.Error("Expected dying tank still registered during death event")
		}
		order = append(order, "died")
	})
	bus.Subscribe(event.EntityDespawned, func(e event.Event) {
		order = append(order, "despawned")
	})

	tank.TakeDamage(DamageInfo{Amount: 150, SourceEntity: 9, SourcePlayer: 7, WeaponName: "cannon"})

	if len(order) != 2 || order[0] != "died" || order[1] != "despawned" {
		t.Fatalf("Expected [died despawned], got %v", order)
	}
	if death.KillerPlayer != 7 || death.WeaponName != "cannon" {
		t.Errorf("Expected killer 7 with cannon, got %d with %s", death.KillerPlayer, death.WeaponName)
	}

	// Damage after death is ignored and never re-fires the event
	applied := tank.TakeDamage(DamageInfo{Amount: 50})
	if applied != 0 {
		t.Errorf("Expected dead tank to absorb nothing, got %v", applied)
	}
	if len(order) != 2 {
		t.Errorf("Expected no further events, got %v", order)
	}
}

func TestTankAppliedDamageExcludesOverflow(t *testing.T) {
	reg, bus, auth := newTestRegistry()

	tank := NewTank(auth, bus, reg, 1, 0, physics.Vector2D{}, DefaultTankStats())
	reg.Spawn(tank, physics.LayerVehicle)

	applied := tank.TakeDamage(DamageInfo{Amount: 130})
	if applied != 100 {
		t.Errorf("Expected 100 absorbed from 130 against full hull, got %v", applied)
	}
}

func TestExplodeDamageFallsOffAndSparesTeam(t *testing.T) {
	reg, bus, auth := newTestRegistry()

	near := NewTank(auth, bus, reg, 1, 0, physics.Vector2D{X: 2, Y: 0}, DefaultTankStats())
	reg.Spawn(near, physics.LayerVehicle)
	far := NewTank(auth, bus, reg, 2, 0, physics.Vector2D{X: 8, Y: 0}, DefaultTankStats())
	reg.Spawn(far, physics.LayerVehicle)
	friend := NewTank(auth, bus, reg, 3, 1, physics.Vector2D{X: 1, Y: 0}, DefaultTankStats())
	reg.Spawn(friend, physics.LayerVehicle)

	hit := Explode(reg, physics.Vector2D{}, 10, DamageInfo{Amount: 50, WeaponName: "shell"}, 1, false)

	if len(hit) != 2 {
		t.Fatalf("Expected 2 entities hit, got %d", len(hit))
	}
	if friend.Health.Current() != friend.Health.Max() {
		t.Error("Expected teammate spared with friendly fire off")
	}
	nearDmg := near.Health.Max() - near.Health.Current()
	farDmg := far.Health.Max() - far.Health.Current()
	if nearDmg <= farDmg {
		t.Errorf("Expected closer tank to take more damage, near %v far %v", nearDmg, farDmg)
	}
}

func TestResolveProjectilesHitAndExpiry(t *testing.T) {
	reg, bus, auth := newTestRegistry()

	shooter := NewTank(auth, bus, reg, 1, 0, physics.Vector2D{X: -10, Y: 0}, DefaultTankStats())
	shooterID := reg.Spawn(shooter, physics.LayerVehicle)
	target := NewTank(auth, bus, reg, 2, 1, physics.Vector2D{X: 0, Y: 0}, DefaultTankStats())
	reg.Spawn(target, physics.LayerVehicle)

	proj := NewProjectile(reg, shooterID, 1, 0, physics.Vector2D{X: -1, Y: 0}, 0, 100, 25, 500, "cannon")
	projID := reg.Spawn(proj, physics.LayerProjectile)

	// Step the projectile onto the target and resolve
	for i := 0; i < 5 && reg.Contains(projID); i++ {
		reg.Update(1.0 / 60)
		ResolveProjectiles(reg, false)
	}

	if target.Health.Current() != target.Health.Max()-25 {
		t.Errorf("Expected target to take 25 damage, hp %v", target.Health.Current())
	}
	if reg.Contains(projID) {
		t.Error("Expected projectile despawned after hit")
	}
}

func TestProjectileExpiresAtRange(t *testing.T) {
	reg, _, _ := newTestRegistry()

	proj := NewProjectile(reg, None, 1, 0, physics.Vector2D{}, 0, 100, 10, 50, "cannon")
	id := reg.Spawn(proj, physics.LayerProjectile)

	for i := 0; i < 60; i++ {
		reg.Update(1.0 / 60)
	}
	ResolveProjectiles(reg, false)

	if !proj.Expired() {
		t.Error("Expected projectile expired after exceeding range")
	}
	if reg.Contains(id) {
		t.Error("Expected expired projectile despawned")
	}
}

func TestDestructiblePropResets(t *testing.T) {
	reg, bus, auth := newTestRegistry()

	prop := NewDestructibleProp(auth, bus, "barrel", physics.Vector2D{}, 2, 40)
	id := reg.Spawn(prop, physics.LayerProp)
	prop.Health.BindEntity(id)

	destroyed := 0
	bus.Subscribe(event.PropDestroyed, func(e event.Event) { destroyed++ })

	prop.TakeDamage(DamageInfo{Amount: 40})

	if !prop.Destroyed() {
		t.Fatal("Expected prop destroyed")
	}
	if destroyed != 1 {
		t.Errorf("Expected 1 destroyed event, got %d", destroyed)
	}
	if !reg.Contains(id) {
		t.Error("Expected wrecked prop to stay registered")
	}

	// Wrecked props absorb nothing
	if applied := prop.TakeDamage(DamageInfo{Amount: 10}); applied != 0 {
		t.Errorf("Expected wreck to absorb nothing, got %v", applied)
	}

	prop.Reset()
	if prop.Destroyed() || prop.Health.Current() != 40 {
		t.Error("Expected prop intact with full health after reset")
	}
}
