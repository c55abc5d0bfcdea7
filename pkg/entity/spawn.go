// pkg/entity/spawn.go
package entity

import (
	"math/rand"

	"github.com/opd-ai/go-tankwar/pkg/physics"
)

// SpawnPoint is a team-tagged spawn location
type SpawnPoint struct {
	Position physics.Vector2D
	Heading  float64
	TeamID   int
}

// FindSpawnPoint picks uniformly at random among the team's spawn
// locations not blocked by a vehicle. Returns false when every point
// for the team is blocked or none exist.
func FindSpawnPoint(registry *Registry, points []SpawnPoint, teamID int, clearance float64) (SpawnPoint, bool) {
	open := make([]SpawnPoint, 0, len(points))
	for _, p := range points {
		if p.TeamID != teamID {
			continue
		}
		if len(registry.Spatial.OverlapCircle(p.Position, clearance, physics.LayerVehicle)) == 0 {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return SpawnPoint{}, false
	}
	return open[rand.Intn(len(open))], true
}
