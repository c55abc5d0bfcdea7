// pkg/entity/collide.go
package entity

import (
	"github.com/opd-ai/go-tankwar/pkg/physics"
)

// ResolveProjectiles sweeps live projectiles against damageable
// entities and the world, applying hits and despawning spent rounds.
// When friendlyFire is false a round passes through teammates.
func ResolveProjectiles(registry *Registry, friendlyFire bool) {
	var spent []ID

	registry.ForEach(func(e Entity) {
		proj, ok := e.(*Projectile)
		if !ok {
			return
		}
		if proj.Expired() {
			spent = append(spent, proj.ID)
			return
		}

		mask := physics.LayerVehicle | physics.LayerProp | physics.LayerWorld
		for _, raw := range registry.Spatial.OverlapCircle(proj.Position, proj.Collider.Radius, mask) {
			id := ID(raw)
			if id == proj.ID || id == proj.ShooterID {
				continue
			}
			target, ok := registry.Get(id)
			if !ok {
				continue
			}
			base := target.(based).Base()
			if !friendlyFire && base.TeamID >= 0 && base.TeamID == proj.TeamID {
				continue
			}
			if dmg, ok := target.(Damageable); ok {
				dmg.TakeDamage(proj.HitInfo())
			}
			proj.Expire()
			spent = append(spent, proj.ID)
			break
		}
	})

	for _, id := range spent {
		registry.Despawn(id)
	}
}
