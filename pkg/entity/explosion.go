// pkg/entity/explosion.go
package entity

import (
	"github.com/opd-ai/go-tankwar/pkg/physics"
)

// Explode applies distance-scaled radius damage around a point.
// Damage falls off linearly from full at the center to zero at the
// edge. When friendlyFire is false, entities on the source's team are
// spared. Returns the ids of entities that absorbed damage.
func Explode(registry *Registry, center physics.Vector2D, radius float64, info DamageInfo, sourceTeam int, friendlyFire bool) []ID {
	var hit []ID
	mask := physics.LayerVehicle | physics.LayerProp
	for _, raw := range registry.Spatial.OverlapCircle(center, radius, mask) {
		id := ID(raw)
		if id == info.SourceEntity {
			continue
		}
		e, ok := registry.Get(id)
		if !ok {
			continue
		}
		dmg, ok := e.(Damageable)
		if !ok {
			continue
		}
		base := e.(based).Base()
		if !friendlyFire && base.TeamID >= 0 && base.TeamID == sourceTeam {
			continue
		}
		dist := registry.WorldPosition(id).Distance(center)
		falloff := 1 - dist/radius
		if falloff <= 0 {
			continue
		}
		scaled := info
		scaled.Amount = info.Amount * falloff
		if dmg.TakeDamage(scaled) > 0 {
			hit = append(hit, id)
		}
	}
	return hit
}
