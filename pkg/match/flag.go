// pkg/match/flag.go
package match

import (
	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/physics"
)

// Flag is a team's capture-the-flag objective. It idles on its home
// stand, rides on an enemy tank's flag rack while stolen, and lies
// dropped in the field after its carrier dies.
type Flag struct {
	entity.BaseEntity
	Home        physics.Vector2D
	CarrierTank entity.ID

	dropTimer float64
}

// NewFlag creates a flag at its home stand
func NewFlag(teamID int, home physics.Vector2D) *Flag {
	return &Flag{
		BaseEntity: entity.BaseEntity{
			Position: home,
			Collider: physics.Circle{Center: home, Radius: 1},
			OwnerID:  entity.NoOwner,
			TeamID:   teamID,
		},
		Home: home,
	}
}

// Update does nothing, flag motion comes from its carrier
func (f *Flag) Update(deltaTime float64) {}

// AtHome reports whether the flag sits on its stand
func (f *Flag) AtHome() bool {
	return f.CarrierTank == entity.None && f.Position == f.Home
}

// Carried reports whether an enemy tank holds the flag
func (f *Flag) Carried() bool {
	return f.CarrierTank != entity.None
}

// Dropped reports whether the flag lies loose in the field
func (f *Flag) Dropped() bool {
	return f.CarrierTank == entity.None && f.Position != f.Home
}
