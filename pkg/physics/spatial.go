// pkg/physics/spatial.go
package physics

import "math"

// Layer is a bitmask separating classes of spatial occupants
type Layer uint32

const (
	LayerWorld      Layer = 1 << iota // static geometry, blocks line of sight
	LayerVehicle                      // player vehicles
	LayerProp                         // destructible props
	LayerPickup                       // flags and other carryables
	LayerProjectile                   // rounds in flight
)

// LayerAll matches every layer
const LayerAll = Layer(math.MaxUint32)

type occupant struct {
	id     uint64
	pos    Vector2D
	radius float64
	layer  Layer
}

// SpatialIndex maintains positions of circular occupants in a uniform
// grid and answers overlap and line-of-sight queries against them.
type SpatialIndex struct {
	cellSize  float64
	occupants map[uint64]*occupant
	cells     map[[2]int]map[uint64]struct{}
}

// NewSpatialIndex creates an index with the given grid cell size
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 32
	}
	return &SpatialIndex{
		cellSize:  cellSize,
		occupants: make(map[uint64]*occupant),
		cells:     make(map[[2]int]map[uint64]struct{}),
	}
}

func (s *SpatialIndex) cellOf(p Vector2D) [2]int {
	return [2]int{
		int(math.Floor(p.X / s.cellSize)),
		int(math.Floor(p.Y / s.cellSize)),
	}
}

// Insert adds or replaces an occupant
func (s *SpatialIndex) Insert(id uint64, pos Vector2D, radius float64, layer Layer) {
	if _, ok := s.occupants[id]; ok {
		s.Remove(id)
	}
	occ := &occupant{id: id, pos: pos, radius: radius, layer: layer}
	s.occupants[id] = occ
	cell := s.cellOf(pos)
	bucket, ok := s.cells[cell]
	if !ok {
		bucket = make(map[uint64]struct{})
		s.cells[cell] = bucket
	}
	bucket[id] = struct{}{}
}

// Move updates an occupant's position, keeping radius and layer
func (s *SpatialIndex) Move(id uint64, pos Vector2D) {
	occ, ok := s.occupants[id]
	if !ok {
		return
	}
	oldCell := s.cellOf(occ.pos)
	newCell := s.cellOf(pos)
	occ.pos = pos
	if oldCell == newCell {
		return
	}
	delete(s.cells[oldCell], id)
	bucket, ok := s.cells[newCell]
	if !ok {
		bucket = make(map[uint64]struct{})
		s.cells[newCell] = bucket
	}
	bucket[id] = struct{}{}
}

// Remove deletes an occupant. Removing an unknown id is a no-op.
func (s *SpatialIndex) Remove(id uint64) {
	occ, ok := s.occupants[id]
	if !ok {
		return
	}
	delete(s.cells[s.cellOf(occ.pos)], id)
	delete(s.occupants, id)
}

// Position returns an occupant's position
func (s *SpatialIndex) Position(id uint64) (Vector2D, bool) {
	occ, ok := s.occupants[id]
	if !ok {
		return Vector2D{}, false
	}
	return occ.pos, true
}

// OverlapCircle returns the ids of all occupants on the given layers
// whose circles intersect the query circle.
func (s *SpatialIndex) OverlapCircle(center Vector2D, radius float64, mask Layer) []uint64 {
	var result []uint64
	minCell := s.cellOf(center.Sub(Vector2D{X: radius, Y: radius}))
	maxCell := s.cellOf(center.Add(Vector2D{X: radius, Y: radius}))
	for cx := minCell[0]; cx <= maxCell[0]; cx++ {
		for cy := minCell[1]; cy <= maxCell[1]; cy++ {
			for id := range s.cells[[2]int{cx, cy}] {
				occ := s.occupants[id]
				if occ.layer&mask == 0 {
					continue
				}
				reach := radius + occ.radius
				if center.Sub(occ.pos).LengthSquared() <= reach*reach {
					result = append(result, id)
				}
			}
		}
	}
	return result
}

// LineBlocked reports whether the segment from a to b crosses any
// occupant on the given layers, excluding the two endpoint ids. Used
// for line-of-sight checks.
func (s *SpatialIndex) LineBlocked(a, b Vector2D, mask Layer, exclude ...uint64) bool {
	skip := make(map[uint64]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	for id, occ := range s.occupants {
		if occ.layer&mask == 0 {
			continue
		}
		if _, ok := skip[id]; ok {
			continue
		}
		if segmentHitsCircle(a, b, occ.pos, occ.radius) {
			return true
		}
	}
	return false
}

// segmentHitsCircle tests segment ab against a circle by projecting
// the center onto the segment and comparing the closest distance.
func segmentHitsCircle(a, b, center Vector2D, radius float64) bool {
	ab := b.Sub(a)
	lenSq := ab.LengthSquared()
	t := 0.0
	if lenSq > 0 {
		t = center.Sub(a).Dot(ab) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	closest := a.Add(ab.Scale(t))
	return center.Sub(closest).LengthSquared() <= radius*radius
}
