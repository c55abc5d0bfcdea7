// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Common event types
const (
	EntitySpawned    Type = "entity_spawned"
	EntityDespawned  Type = "entity_despawned"
	EntityDied       Type = "entity_died"
	OwnershipChanged Type = "ownership_changed"
	HealthChanged    Type = "health_changed"
	HealthEmpty      Type = "health_empty"
	HealthFull       Type = "health_full"
	CarryAttached    Type = "carry_attached"
	CarryRemoved     Type = "carry_removed"
	WeaponFired      Type = "weapon_fired"
	TargetLocked     Type = "target_locked"
	PlayerJoined     Type = "player_joined"
	PlayerLeft       Type = "player_left"
	PlayerJoinedTeam Type = "player_joined_team"
	PlayerLeftTeam   Type = "player_left_team"
	TeamScoreChanged Type = "team_score_changed"
	MatchStarted     Type = "match_started"
	MatchEnded       Type = "match_ended"
	FlagPickedUp     Type = "flag_picked_up"
	FlagReturned     Type = "flag_returned"
	FlagCaptured     Type = "flag_captured"
	PropDestroyed    Type = "prop_destroyed"
	VoteClosed       Type = "vote_closed"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish sends an event to all subscribed handlers, synchronously
// and in registration order.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers, ok := b.handlers[event.GetType()]
	b.mu.RUnlock()

	if !ok {
		return
	}

	for _, handler := range handlers {
		handler(event)
	}
}

// Specific event implementations

// EntityEvent carries lifecycle information for a single entity
type EntityEvent struct {
	BaseEvent
	EntityID uint64
	TeamID   int
}

// NewEntityEvent creates a new entity lifecycle event
func NewEntityEvent(eventType Type, source interface{}, entityID uint64, teamID int) *EntityEvent {
	return &EntityEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		EntityID: entityID,
		TeamID:   teamID,
	}
}

// DeathEvent reports an entity kill and who caused it. It is published
// before the dead entity is despawned so handlers can still inspect it.
type DeathEvent struct {
	BaseEvent
	EntityID     uint64
	KillerEntity uint64
	KillerPlayer int
	WeaponName   string
}

// NewDeathEvent creates a new death event
func NewDeathEvent(source interface{}, entityID, killerEntity uint64, killerPlayer int, weaponName string) *DeathEvent {
	return &DeathEvent{
		BaseEvent: BaseEvent{
			EventType: EntityDied,
			Source:    source,
		},
		EntityID:     entityID,
		KillerEntity: killerEntity,
		KillerPlayer: killerPlayer,
		WeaponName:   weaponName,
	}
}

// PlayerEvent reports a player entering or leaving the session
type PlayerEvent struct {
	BaseEvent
	PlayerID int
	Name     string
}

// NewPlayerEvent creates a new player session event
func NewPlayerEvent(eventType Type, source interface{}, playerID int, name string) *PlayerEvent {
	return &PlayerEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		PlayerID: playerID,
		Name:     name,
	}
}

// OwnershipEvent reports an entity changing owning player
type OwnershipEvent struct {
	BaseEvent
	EntityID uint64
	OldOwner int
	NewOwner int
}

// NewOwnershipEvent creates a new ownership transfer event
func NewOwnershipEvent(source interface{}, entityID uint64, oldOwner, newOwner int) *OwnershipEvent {
	return &OwnershipEvent{
		BaseEvent: BaseEvent{
			EventType: OwnershipChanged,
			Source:    source,
		},
		EntityID: entityID,
		OldOwner: oldOwner,
		NewOwner: newOwner,
	}
}

// HealthEvent reports a health value change on an entity
type HealthEvent struct {
	BaseEvent
	EntityID uint64
	Old      float64
	New      float64
}

// NewHealthEvent creates a new health event
func NewHealthEvent(eventType Type, source interface{}, entityID uint64, old, new float64) *HealthEvent {
	return &HealthEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		EntityID: entityID,
		Old:      old,
		New:      new,
	}
}

// CarryEvent reports a carryable attaching to or leaving a carrier point
type CarryEvent struct {
	BaseEvent
	CarrierID   uint64
	CarryableID uint64
	PointName   string
}

// NewCarryEvent creates a new carrier attachment event
func NewCarryEvent(eventType Type, source interface{}, carrierID, carryableID uint64, pointName string) *CarryEvent {
	return &CarryEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		CarrierID:   carrierID,
		CarryableID: carryableID,
		PointName:   pointName,
	}
}

// WeaponEvent reports a weapon discharging a projectile
type WeaponEvent struct {
	BaseEvent
	ShooterID    uint64
	ProjectileID uint64
	OwnerPlayer  int
	WeaponName   string
}

// NewWeaponEvent creates a new weapon fired event
func NewWeaponEvent(source interface{}, shooterID, projectileID uint64, ownerPlayer int, weaponName string) *WeaponEvent {
	return &WeaponEvent{
		BaseEvent: BaseEvent{
			EventType: WeaponFired,
			Source:    source,
		},
		ShooterID:    shooterID,
		ProjectileID: projectileID,
		OwnerPlayer:  ownerPlayer,
		WeaponName:   weaponName,
	}
}

// TeamEvent carries team membership and scoring information
type TeamEvent struct {
	BaseEvent
	TeamID   int
	PlayerID int
	Score    int
}

// NewTeamEvent creates a new team event
func NewTeamEvent(eventType Type, source interface{}, teamID, playerID, score int) *TeamEvent {
	return &TeamEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		TeamID:   teamID,
		PlayerID: playerID,
		Score:    score,
	}
}

// FlagEvent reports capture-the-flag state changes
type FlagEvent struct {
	BaseEvent
	FlagID    uint64
	FlagTeam  int
	ByEntity  uint64
	ByTeam    int
}

// NewFlagEvent creates a new flag event
func NewFlagEvent(eventType Type, source interface{}, flagID uint64, flagTeam int, byEntity uint64, byTeam int) *FlagEvent {
	return &FlagEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		FlagID:   flagID,
		FlagTeam: flagTeam,
		ByEntity: byEntity,
		ByTeam:   byTeam,
	}
}

// MatchEvent reports match phase transitions and the final summary
type MatchEvent struct {
	BaseEvent
	WinningTeam int
	Scores      map[int]int
}

// NewMatchEvent creates a new match event
func NewMatchEvent(eventType Type, source interface{}, winningTeam int, scores map[int]int) *MatchEvent {
	return &MatchEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		WinningTeam: winningTeam,
		Scores:      scores,
	}
}

// VoteEvent reports the outcome of a closed vote
type VoteEvent struct {
	BaseEvent
	WinnerIndex int
	WinnerName  string
	Counts      []int
}

// NewVoteEvent creates a new vote result event
func NewVoteEvent(source interface{}, winnerIndex int, winnerName string, counts []int) *VoteEvent {
	return &VoteEvent{
		BaseEvent: BaseEvent{
			EventType: VoteClosed,
			Source:    source,
		},
		WinnerIndex: winnerIndex,
		WinnerName:  winnerName,
		Counts:      counts,
	}
}
