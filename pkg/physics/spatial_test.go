// pkg/physics/spatial_test.go
package physics

import "testing"

func TestSpatialIndex_OverlapCircle(t *testing.T) {
	idx := NewSpatialIndex(32)
	idx.Insert(1, Vector2D{X: 0, Y: 0}, 2, LayerVehicle)
	idx.Insert(2, Vector2D{X: 10, Y: 0}, 2, LayerVehicle)
	idx.Insert(3, Vector2D{X: 100, Y: 100}, 2, LayerVehicle)
	idx.Insert(4, Vector2D{X: 5, Y: 0}, 2, LayerWorld)

	t.Run("finds_occupants_in_range", func(t *testing.T) {
		hits := idx.OverlapCircle(Vector2D{X: 0, Y: 0}, 15, LayerVehicle)
		if len(hits) != 2 {
			t.Errorf("Expected 2 hits, got %d (%v)", len(hits), hits)
		}
	})

	t.Run("respects_layer_mask", func(t *testing.T) {
		hits := idx.OverlapCircle(Vector2D{X: 5, Y: 0}, 1, LayerWorld)
		if len(hits) != 1 || hits[0] != 4 {
			t.Errorf("Expected only world occupant 4, got %v", hits)
		}
	})

	t.Run("occupant_radius_counts", func(t *testing.T) {
		// Occupant 2 is at distance 10 with radius 2, so a query
		// radius of 8.5 still reaches it.
		hits := idx.OverlapCircle(Vector2D{X: 0, Y: 0}, 8.5, LayerVehicle)
		found := false
		for _, id := range hits {
			if id == 2 {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected occupant 2 within reach, got %v", hits)
		}
	})
}

func TestSpatialIndex_MoveAndRemove(t *testing.T) {
	idx := NewSpatialIndex(16)
	idx.Insert(7, Vector2D{X: 0, Y: 0}, 1, LayerVehicle)

	idx.Move(7, Vector2D{X: 200, Y: 200})

	hits := idx.OverlapCircle(Vector2D{X: 0, Y: 0}, 10, LayerAll)
	if len(hits) != 0 {
		t.Errorf("Expected no hits at old position, got %v", hits)
	}
	hits = idx.OverlapCircle(Vector2D{X: 200, Y: 200}, 10, LayerAll)
	if len(hits) != 1 {
		t.Errorf("Expected 1 hit at new position, got %v", hits)
	}

	idx.Remove(7)
	idx.Remove(7) // second removal is a no-op

	hits = idx.OverlapCircle(Vector2D{X: 200, Y: 200}, 10, LayerAll)
	if len(hits) != 0 {
		t.Errorf("Expected no hits after removal, got %v", hits)
	}
}

func TestSpatialIndex_LineBlocked(t *testing.T) {
	idx := NewSpatialIndex(32)
	idx.Insert(1, Vector2D{X: 0, Y: 0}, 1, LayerVehicle)
	idx.Insert(2, Vector2D{X: 100, Y: 0}, 1, LayerVehicle)
	idx.Insert(9, Vector2D{X: 50, Y: 0}, 5, LayerWorld)

	t.Run("wall_blocks_line", func(t *testing.T) {
		blocked := idx.LineBlocked(Vector2D{X: 0, Y: 0}, Vector2D{X: 100, Y: 0}, LayerWorld, 1, 2)
		if !blocked {
			t.Error("Expected line through wall to be blocked")
		}
	})

	t.Run("clear_line", func(t *testing.T) {
		blocked := idx.LineBlocked(Vector2D{X: 0, Y: 20}, Vector2D{X: 100, Y: 20}, LayerWorld, 1, 2)
		if blocked {
			t.Error("Expected offset line to be clear")
		}
	})

	t.Run("endpoints_excluded", func(t *testing.T) {
		blocked := idx.LineBlocked(Vector2D{X: 0, Y: 0}, Vector2D{X: 100, Y: 0}, LayerVehicle, 1, 2)
		if blocked {
			t.Error("Expected excluded endpoints not to block")
		}
	})
}

func TestUpdateVehicle(t *testing.T) {
	state := &VehicleState{
		Thrust:     100,
		TurnRate:   1,
		TurretRate: 2,
		MaxSpeed:   50,
	}

	UpdateVehicle(state, 0.1, 1, 0, 0)

	if state.Velocity.X <= 0 {
		t.Errorf("Expected forward velocity, got %v", state.Velocity)
	}
	if state.Position.X <= 0 {
		t.Errorf("Expected forward movement, got %v", state.Position)
	}

	// Turret turns without the hull
	UpdateVehicle(state, 0.1, 0, 0, 1)
	if state.TurretHeading == state.HullHeading {
		t.Error("Expected turret heading to diverge from hull heading")
	}

	// Speed stays capped
	for i := 0; i < 100; i++ {
		UpdateVehicle(state, 0.1, 1, 0, 0)
	}
	if state.Velocity.Length() > state.MaxSpeed+1e-9 {
		t.Errorf("Expected speed capped at %v, got %v", state.MaxSpeed, state.Velocity.Length())
	}
}
