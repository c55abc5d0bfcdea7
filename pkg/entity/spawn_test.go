// pkg/entity/spawn_test.go
package entity

import (
	"testing"

	"github.com/opd-ai/go-tankwar/pkg/physics"
)

func spawnTestPoints() []SpawnPoint {
	return []SpawnPoint{
		{Position: physics.Vector2D{X: 20, Y: 0}, TeamID: 0},
		{Position: physics.Vector2D{X: 20, Y: 50}, TeamID: 0},
		{Position: physics.Vector2D{X: 280, Y: 0}, TeamID: 1},
	}
}

func TestFindSpawnPointPicksAmongOwnTeamPoints(t *testing.T) {
	reg, _, _ := newTestRegistry()
	points := spawnTestPoints()

	seen := make(map[float64]int)
	for i := 0; i < 200; i++ {
		p, ok := FindSpawnPoint(reg, points, 0, 4)
		if !ok {
			t.Fatal("Expected an open spawn point for team 0")
		}
		if p.TeamID != 0 {
			t.Fatalf("Expected a team 0 point, got team %d", p.TeamID)
		}
		seen[p.Position.Y]++
	}

	if len(seen) != 2 {
		t.Errorf("Expected both team points chosen over 200 picks, got %v", seen)
	}
}

func TestFindSpawnPointSkipsBlockedPoints(t *testing.T) {
	reg, _, _ := newTestRegistry()
	points := spawnTestPoints()

	// A parked vehicle blocks the first team 0 point
	reg.Spatial.Insert(9001, physics.Vector2D{X: 20, Y: 0}, 2, physics.LayerVehicle)

	for i := 0; i < 50; i++ {
		p, ok := FindSpawnPoint(reg, points, 0, 4)
		if !ok {
			t.Fatal("Expected the open point to be found")
		}
		if p.Position.Y != 50 {
			t.Fatalf("Expected every pick on the open point, got %v", p.Position)
		}
	}
}

func TestFindSpawnPointFailsWhenAllBlocked(t *testing.T) {
	reg, _, _ := newTestRegistry()
	points := spawnTestPoints()

	reg.Spatial.Insert(9001, physics.Vector2D{X: 20, Y: 0}, 2, physics.LayerVehicle)
	reg.Spatial.Insert(9002, physics.Vector2D{X: 20, Y: 50}, 2, physics.LayerVehicle)

	if _, ok := FindSpawnPoint(reg, points, 0, 4); ok {
		t.Error("Expected no spawn point while every team point is blocked")
	}

	// The other team is unaffected
	if _, ok := FindSpawnPoint(reg, points, 1, 4); !ok {
		t.Error("Expected team 1 to keep its open point")
	}
}
