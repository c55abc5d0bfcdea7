// pkg/physics/vehicle.go
package physics

import "math"

// VehicleState tracks tank hull and turret physics
type VehicleState struct {
	Position      Vector2D
	Velocity      Vector2D
	HullHeading   float64 // radians
	TurretHeading float64 // radians, world space
	Thrust        float64
	TurnRate      float64 // radians per second at full input
	TurretRate    float64
	MaxSpeed      float64
	Friction      float64 // fraction of velocity shed per second
}

// UpdateVehicle advances a tank's hull motion and turret aim by one
// tick. Inputs are in [-1, 1].
func UpdateVehicle(state *VehicleState, deltaTime, throttle, steer, turretTurn float64) {
	// Apply hull rotation
	state.HullHeading += steer * state.TurnRate * deltaTime

	// Turret rotates independently of the hull
	state.TurretHeading += turretTurn * state.TurretRate * deltaTime

	// Tracks only push along the hull axis
	thrustVector := FromAngle(state.HullHeading, throttle*state.Thrust)
	state.Velocity = state.Velocity.Add(thrustVector.Scale(deltaTime))

	// Ground friction
	if state.Friction > 0 {
		decay := 1 - state.Friction*deltaTime
		if decay < 0 {
			decay = 0
		}
		state.Velocity = state.Velocity.Scale(decay)
	}

	// Limit speed
	state.Velocity = state.Velocity.ClampLength(state.MaxSpeed)

	// Update position
	state.Position = state.Position.Add(state.Velocity.Scale(deltaTime))
}

// TurretForward returns the unit vector the turret is aiming along
func (s *VehicleState) TurretForward() Vector2D {
	return FromAngle(s.TurretHeading, 1)
}

// ApplyImpulse adds an instantaneous velocity change, used for weapon
// recoil on the firing vehicle.
func (s *VehicleState) ApplyImpulse(impulse Vector2D) {
	s.Velocity = s.Velocity.Add(impulse).ClampLength(s.MaxSpeed * 1.5)
}

// NormalizeAngle wraps an angle into (-pi, pi]
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
