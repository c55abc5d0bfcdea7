// pkg/entity/health.go
package entity

import (
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/replica"
)

// Health tracks a replicated hit point pool clamped to [0, Max].
// Empty and full notifications are edge triggered: they fire when the
// value crosses into the boundary and not again until it leaves. The
// cell's equal-value suppression provides that for free.
type Health struct {
	max      float64
	current  *replica.Cell[float64]
	entityID ID
	bus      *event.Bus

	onEmpty []func()
	onFull  []func()
}

// NewHealth creates a full health pool for an entity
func NewHealth(auth *replica.Authority, bus *event.Bus, entityID ID, max float64) *Health {
	h := &Health{
		max:      max,
		entityID: entityID,
		bus:      bus,
	}
	h.current = replica.NewCell(auth, max)
	h.current.OnChange(h.onCellChange)
	return h
}

func (h *Health) onCellChange(old, new float64) {
	if h.bus != nil {
		h.bus.Publish(event.NewHealthEvent(event.HealthChanged, h, uint64(h.entityID), old, new))
	}
	if new == 0 {
		if h.bus != nil {
			h.bus.Publish(event.NewHealthEvent(event.HealthEmpty, h, uint64(h.entityID), old, new))
		}
		for _, fn := range h.onEmpty {
			fn()
		}
	}
	if new == h.max {
		if h.bus != nil {
			h.bus.Publish(event.NewHealthEvent(event.HealthFull, h, uint64(h.entityID), old, new))
		}
		for _, fn := range h.onFull {
			fn()
		}
	}
}

// BindEntity sets the entity id reported in health events. Entities
// get their id at spawn time, after their health pool exists.
func (h *Health) BindEntity(id ID) {
	h.entityID = id
}

// Current returns the current hit points
func (h *Health) Current() float64 {
	return h.current.Get()
}

// Max returns the hit point ceiling
func (h *Health) Max() float64 {
	return h.max
}

// IsEmpty reports whether the pool is at zero
func (h *Health) IsEmpty() bool {
	return h.current.Get() == 0
}

// Damage reduces hit points. Negative amounts are treated as zero.
// Returns the overflow, the portion of the damage beyond zero.
func (h *Health) Damage(amount float64) float64 {
	if amount < 0 {
		amount = 0
	}
	cur := h.current.Get()
	overflow := 0.0
	if amount > cur {
		overflow = amount - cur
	}
	h.current.Set(cur - (amount - overflow))
	return overflow
}

// Heal restores hit points. Negative amounts are treated as zero.
// Returns the rollover, the portion of the healing beyond Max.
func (h *Health) Heal(amount float64) float64 {
	if amount < 0 {
		amount = 0
	}
	cur := h.current.Get()
	rollover := 0.0
	if cur+amount > h.max {
		rollover = cur + amount - h.max
	}
	h.current.Set(cur + amount - rollover)
	return rollover
}

// SetMax changes the ceiling and re-clamps the current value
func (h *Health) SetMax(max float64) {
	if max < 0 {
		max = 0
	}
	h.max = max
	if h.current.Get() > max {
		h.current.Set(max)
	}
}

// Reset restores the pool to full
func (h *Health) Reset() {
	h.current.Set(h.max)
}

// OnEmpty registers a callback for the transition into zero
func (h *Health) OnEmpty(fn func()) {
	h.onEmpty = append(h.onEmpty, fn)
}

// OnFull registers a callback for the transition into Max
func (h *Health) OnFull(fn func()) {
	h.onFull = append(h.onFull, fn)
}

// OnChange registers a callback for every accepted value change
func (h *Health) OnChange(fn func(old, new float64)) {
	h.current.OnChange(fn)
}
