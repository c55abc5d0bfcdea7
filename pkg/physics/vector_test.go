// pkg/physics/vector_test.go
package physics

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func vectorsClose(a, b Vector2D) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon
}

func TestVectorArithmetic(t *testing.T) {
	a := Vector2D{X: 3, Y: 4}
	b := Vector2D{X: -1, Y: 2}

	if got := a.Add(b); !vectorsClose(got, Vector2D{X: 2, Y: 6}) {
		t.Errorf("Expected {2 6}, got %v", got)
	}
	if got := a.Sub(b); !vectorsClose(got, Vector2D{X: 4, Y: 2}) {
		t.Errorf("Expected {4 2}, got %v", got)
	}
	if got := a.Scale(2); !vectorsClose(got, Vector2D{X: 6, Y: 8}) {
		t.Errorf("Expected {6 8}, got %v", got)
	}
	if got := a.Scale(0); !vectorsClose(got, Vector2D{}) {
		t.Errorf("Expected the zero vector, got %v", got)
	}
}

func TestVectorLength(t *testing.T) {
	tests := []struct {
		name string
		v    Vector2D
		want float64
	}{
		{"3-4-5 triangle", Vector2D{X: 3, Y: 4}, 5},
		{"unit x", Vector2D{X: 1, Y: 0}, 1},
		{"negative components", Vector2D{X: -3, Y: -4}, 5},
		{"zero vector", Vector2D{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Length(); math.Abs(got-tt.want) > epsilon {
				t.Errorf("Expected length %v, got %v", tt.want, got)
			}
			if got := tt.v.LengthSquared(); math.Abs(got-tt.want*tt.want) > epsilon {
				t.Errorf("Expected squared length %v, got %v", tt.want*tt.want, got)
			}
		})
	}
}

func TestVectorNormalize(t *testing.T) {
	v := Vector2D{X: 3, Y: 4}
	unit := v.Normalize()

	if got := unit.Length(); math.Abs(got-1) > epsilon {
		t.Errorf("Expected unit length, got %v", got)
	}
	if !vectorsClose(unit, Vector2D{X: 0.6, Y: 0.8}) {
		t.Errorf("Expected {0.6 0.8}, got %v", unit)
	}
}

func TestNormalizeZeroVectorStaysZero(t *testing.T) {
	got := Vector2D{}.Normalize()
	if !vectorsClose(got, Vector2D{}) {
		t.Errorf("Expected the zero vector to normalize to itself, got %v", got)
	}
}

func TestVectorDistance(t *testing.T) {
	a := Vector2D{X: 1, Y: 1}
	b := Vector2D{X: 4, Y: 5}

	if got := a.Distance(b); math.Abs(got-5) > epsilon {
		t.Errorf("Expected distance 5, got %v", got)
	}
	if got := b.Distance(a); math.Abs(got-5) > epsilon {
		t.Errorf("Expected distance to be symmetric, got %v", got)
	}
	if got := a.Distance(a); got != 0 {
		t.Errorf("Expected zero distance to self, got %v", got)
	}
}

func TestVectorAngleAndFromAngle(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
		want  Vector2D
	}{
		{"east", 0, Vector2D{X: 1, Y: 0}},
		{"north", math.Pi / 2, Vector2D{X: 0, Y: 1}},
		{"west", math.Pi, Vector2D{X: -1, Y: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromAngle(tt.angle, 1)
			if !vectorsClose(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			back := got.Angle()
			if math.Abs(math.Mod(back-tt.angle+2*math.Pi, 2*math.Pi)) > epsilon {
				t.Errorf("Expected angle %v back, got %v", tt.angle, back)
			}
		})
	}

	scaled := FromAngle(math.Pi/4, 10)
	if math.Abs(scaled.Length()-10) > epsilon {
		t.Errorf("Expected magnitude 10, got %v", scaled.Length())
	}
}

func TestVectorDot(t *testing.T) {
	a := Vector2D{X: 1, Y: 0}

	if got := a.Dot(Vector2D{X: 1, Y: 0}); math.Abs(got-1) > epsilon {
		t.Errorf("Expected parallel dot 1, got %v", got)
	}
	if got := a.Dot(Vector2D{X: 0, Y: 1}); math.Abs(got) > epsilon {
		t.Errorf("Expected perpendicular dot 0, got %v", got)
	}
	if got := a.Dot(Vector2D{X: -1, Y: 0}); math.Abs(got+1) > epsilon {
		t.Errorf("Expected opposed dot -1, got %v", got)
	}
}

func TestVectorRotate(t *testing.T) {
	v := Vector2D{X: 1, Y: 0}

	quarter := v.Rotate(math.Pi / 2)
	if !vectorsClose(quarter, Vector2D{X: 0, Y: 1}) {
		t.Errorf("Expected {0 1} after a quarter turn, got %v", quarter)
	}

	full := v.Rotate(2 * math.Pi)
	if !vectorsClose(full, v) {
		t.Errorf("Expected a full turn to return the vector, got %v", full)
	}

	if got := v.Rotate(math.Pi / 3).Length(); math.Abs(got-1) > epsilon {
		t.Errorf("Expected rotation to preserve length, got %v", got)
	}
}

func TestVectorLerp(t *testing.T) {
	a := Vector2D{X: 0, Y: 0}
	b := Vector2D{X: 10, Y: 20}

	if got := a.Lerp(b, 0); !vectorsClose(got, a) {
		t.Errorf("Expected t=0 to return the start, got %v", got)
	}
	if got := a.Lerp(b, 1); !vectorsClose(got, b) {
		t.Errorf("Expected t=1 to return the end, got %v", got)
	}
	if got := a.Lerp(b, 0.5); !vectorsClose(got, Vector2D{X: 5, Y: 10}) {
		t.Errorf("Expected the midpoint {5 10}, got %v", got)
	}
}

func TestVectorClampLength(t *testing.T) {
	long := Vector2D{X: 6, Y: 8}

	clamped := long.ClampLength(5)
	if got := clamped.Length(); math.Abs(got-5) > epsilon {
		t.Errorf("Expected length clamped to 5, got %v", got)
	}
	if !vectorsClose(clamped.Normalize(), long.Normalize()) {
		t.Errorf("Expected clamping to preserve direction, got %v", clamped)
	}

	short := Vector2D{X: 1, Y: 1}
	if got := short.ClampLength(5); !vectorsClose(got, short) {
		t.Errorf("Expected a short vector to pass through, got %v", got)
	}
}
