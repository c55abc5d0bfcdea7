// pkg/match/match.go
package match

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/physics"
	"github.com/opd-ai/go-tankwar/pkg/relay"
	"github.com/opd-ai/go-tankwar/pkg/replica"
	"github.com/opd-ai/go-tankwar/pkg/team"
	"github.com/opd-ai/go-tankwar/pkg/vote"
	"github.com/opd-ai/go-tankwar/pkg/weapon"
)

// Phase is the match lifecycle stage
type Phase int

const (
	PhaseWarmUp Phase = iota
	PhaseInProgress
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseWarmUp:
		return "warmup"
	case PhaseInProgress:
		return "in_progress"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// Config holds the rules for one match
type Config struct {
	MinPlayers   int
	FillWithAI   bool
	TimeLimit    float64 // seconds
	PostGameTime float64 // seconds the summary stays up
	RespawnDelay float64 // seconds
	ScoreLimit   int     // 0 disables the limit
	FriendlyFire bool
	Teams        []team.TeamSpec
	SpawnPoints  []entity.SpawnPoint
	TankStats    entity.TankStats
}

// DefaultConfig returns tournament-standard rules
func DefaultConfig() Config {
	return Config{
		MinPlayers:   2,
		FillWithAI:   true,
		TimeLimit:    300,
		PostGameTime: 5,
		RespawnDelay: 4,
		ScoreLimit:   0,
		FriendlyFire: false,
		Teams: []team.TeamSpec{
			{Name: "Red", Color: "#c0392b"},
			{Name: "Blue", Color: "#2980b9"},
		},
		TankStats: entity.DefaultTankStats(),
	}
}

// Loadout is the weapon set mounted on one tank
type Loadout struct {
	Cannon   *weapon.Cannon
	Launcher *weapon.GuidedLauncher
}

// Mode is a game mode's scoring logic. Modes attach purely through
// event subscription and a per-tick hook; the orchestrator never
// calls into mode internals.
type Mode interface {
	Name() string
	Attach(l *Logic)
	Update(deltaTime float64)
}

// Logic drives a match through warm-up, play, and the post-game
// window. Phase behavior runs through a function pointer swapped on
// each transition, so a tick only pays for its current phase.
type Logic struct {
	auth     *replica.Authority
	bus      *event.Bus
	registry *entity.Registry
	relay    *relay.Relay
	teams    *team.Manager
	log      *zap.Logger
	cfg      Config
	mode     Mode

	phase       Phase
	stateUpdate func(deltaTime float64)

	timer         float64
	postTimer     float64
	matchComplete bool
	initialized   bool

	respawnTimers map[int]float64
	loadouts      map[int]*Loadout

	mapVote *vote.Tally
}

// NewLogic creates an uninitialized match
func NewLogic(auth *replica.Authority, bus *event.Bus, registry *entity.Registry, rel *relay.Relay, teams *team.Manager, log *zap.Logger, cfg Config, mode Mode) *Logic {
	if cfg.PostGameTime <= 0 {
		cfg.PostGameTime = 5
	}
	l := &Logic{
		auth:          auth,
		bus:           bus,
		registry:      registry,
		relay:         rel,
		teams:         teams,
		log:           log,
		cfg:           cfg,
		mode:          mode,
		phase:         PhaseWarmUp,
		respawnTimers: make(map[int]float64),
		loadouts:      make(map[int]*Loadout),
	}
	return l
}

// Initialize sets up teams and event wiring. Guarded one-shot: a
// second call changes nothing.
func (l *Logic) Initialize() error {
	if l.initialized {
		return nil
	}
	if len(l.cfg.Teams) < 2 {
		return fmt.Errorf("match needs at least 2 teams, got %d", len(l.cfg.Teams))
	}
	l.initialized = true

	l.teams.CreateTeams(l.cfg.Teams)
	l.stateUpdate = l.warmUpUpdate

	// The mode attaches first so its death handlers still see the
	// victim's tank mapping before the orchestrator clears it.
	if l.mode != nil {
		l.mode.Attach(l)
	}

	l.bus.Subscribe(event.EntityDied, l.onTankDied)
	l.bus.Subscribe(event.PlayerJoinedTeam, l.onPlayerJoinedTeam)
	l.bus.Subscribe(event.PlayerLeft, l.onPlayerLeft)
	l.bus.Subscribe(event.OwnershipChanged, l.onOwnershipTransferred)
	l.bus.Subscribe(event.TeamScoreChanged, l.onTeamScoreChanged)

	l.log.Info("match initialized",
		zap.String("mode", l.modeName()),
		zap.Int("teams", l.teams.Count()),
		zap.Float64("time_limit", l.cfg.TimeLimit),
	)
	return nil
}

func (l *Logic) modeName() string {
	if l.mode == nil {
		return "none"
	}
	return l.mode.Name()
}

// Phase returns the current lifecycle stage
func (l *Logic) Phase() Phase {
	return l.phase
}

// Complete reports the one-shot terminal flag
func (l *Logic) Complete() bool {
	return l.matchComplete
}

// TimeRemaining returns the match clock in seconds
func (l *Logic) TimeRemaining() float64 {
	return l.timer
}

// Config returns the match rules
func (l *Logic) Config() Config {
	return l.cfg
}

// Bus returns the match event bus, for modes and transports
func (l *Logic) Bus() *event.Bus {
	return l.bus
}

// Registry returns the entity registry
func (l *Logic) Registry() *entity.Registry {
	return l.registry
}

// Relay returns the player directory
func (l *Logic) Relay() *relay.Relay {
	return l.relay
}

// Teams returns the team manager
func (l *Logic) Teams() *team.Manager {
	return l.teams
}

// Mode returns the attached game mode, nil when none is set
func (l *Logic) Mode() Mode {
	return l.mode
}

// Update advances the match by one tick
func (l *Logic) Update(deltaTime float64) {
	if !l.initialized || l.stateUpdate == nil {
		return
	}
	l.stateUpdate(deltaTime)
}

// warmUpUpdate waits for the lobby to fill, topping up with AI when
// configured, then starts the match.
func (l *Logic) warmUpUpdate(deltaTime float64) {
	humans := l.relay.HumanCount()
	if humans == 0 {
		return
	}
	if l.cfg.FillWithAI {
		for l.relay.Count() < l.cfg.MinPlayers {
			bot := l.relay.AddAIPlayer(fmt.Sprintf("Bot %d", l.relay.Count()+1))
			l.assignTeam(bot)
		}
	}
	if l.relay.Count() < l.cfg.MinPlayers {
		return
	}
	l.start()
}

func (l *Logic) start() {
	l.phase = PhaseInProgress
	l.stateUpdate = l.inProgressUpdate
	l.timer = l.cfg.TimeLimit

	// Everyone starts through the respawn path so spawn rules are
	// identical for the first spawn and every later one.
	l.relay.ForEach(func(p *relay.Player) {
		l.assignTeam(p)
		l.respawnTimers[p.ID] = 0
	})

	l.bus.Publish(event.NewMatchEvent(event.MatchStarted, l, team.NoTeam, l.teams.Scores()))
	l.log.Info("match started", zap.Int("players", l.relay.Count()))
}

func (l *Logic) assignTeam(p *relay.Player) {
	if p.TeamID == team.NoTeam {
		p.TeamID = l.teams.AutoAssign(p.ID)
	}
}

// inProgressUpdate runs one simulation tick: entities, projectiles,
// weapons, the mode hook, respawns, and the clock.
func (l *Logic) inProgressUpdate(deltaTime float64) {
	l.registry.Update(deltaTime)
	entity.ResolveProjectiles(l.registry, l.cfg.FriendlyFire)
	l.updateWeapons(deltaTime)
	if l.mode != nil {
		l.mode.Update(deltaTime)
	}
	// The score limit handler may have ended the match during the
	// mode hook; the rest of the tick belongs to the ended phase.
	if l.phase != PhaseInProgress {
		return
	}
	l.updateRespawnTimers(deltaTime)

	l.timer -= deltaTime
	if l.timer <= 0 {
		l.timer = 0
		l.end()
	}
}

func (l *Logic) end() {
	l.phase = PhaseEnded
	l.stateUpdate = l.endedUpdate
	l.postTimer = l.cfg.PostGameTime

	winner, _ := l.teams.Leader()
	l.bus.Publish(event.NewMatchEvent(event.MatchEnded, l, winner, l.teams.Scores()))
	l.log.Info("match ended",
		zap.Int("winning_team", winner),
		zap.Any("scores", l.teams.Scores()),
	)
}

// endedUpdate runs the post-game window, then latches MatchComplete
// exactly once.
func (l *Logic) endedUpdate(deltaTime float64) {
	if l.matchComplete {
		return
	}
	l.postTimer -= deltaTime
	if l.postTimer > 0 {
		return
	}
	l.matchComplete = true
	if l.mapVote != nil {
		idx, name := l.mapVote.Close()
		l.log.Info("map vote closed", zap.Int("winner_index", idx), zap.String("map", name))
	}
	l.log.Info("match complete")
}

// StartMapVote opens a vote over the map rotation for the post-game
// screen. The tally closes when the match completes.
func (l *Logic) StartMapVote(options []string) *vote.Tally {
	l.mapVote = vote.NewTally(l.bus, options)
	return l.mapVote
}

// MapVote returns the open tally, nil when no vote is running
func (l *Logic) MapVote() *vote.Tally {
	return l.mapVote
}

// updateWeapons ticks every mounted weapon
func (l *Logic) updateWeapons(deltaTime float64) {
	for playerID, lo := range l.loadouts {
		p, ok := l.relay.ByID(playerID)
		if !ok || p.TankID == entity.None || !l.registry.Contains(p.TankID) {
			delete(l.loadouts, playerID)
			continue
		}
		lo.Cannon.Update(deltaTime)
		lo.Launcher.Update(deltaTime)
	}
}

// updateRespawnTimers counts down per-player respawn clocks. Entries
// for departed players are dropped; a player without a team or a
// clear spawn point keeps waiting tick to tick.
func (l *Logic) updateRespawnTimers(deltaTime float64) {
	for playerID, remaining := range l.respawnTimers {
		p, ok := l.relay.ByID(playerID)
		if !ok {
			delete(l.respawnTimers, playerID)
			continue
		}
		remaining -= deltaTime
		if remaining > 0 {
			l.respawnTimers[playerID] = remaining
			continue
		}
		l.respawnTimers[playerID] = 0

		if p.TeamID == team.NoTeam {
			continue
		}
		point, ok := entity.FindSpawnPoint(l.registry, l.cfg.SpawnPoints, p.TeamID, l.cfg.TankStats.Radius*2)
		if !ok {
			continue
		}
		l.spawnTank(p, point)
		delete(l.respawnTimers, playerID)
	}
}

// spawnTank puts a fresh tank and loadout into the world for a player
func (l *Logic) spawnTank(p *relay.Player, point entity.SpawnPoint) {
	tank := entity.NewTank(l.auth, l.bus, l.registry, p.ID, p.TeamID, point.Position, l.cfg.TankStats)
	tank.Vehicle.HullHeading = point.Heading
	tank.Vehicle.TurretHeading = point.Heading

	id := l.registry.Spawn(tank, physics.LayerVehicle)
	tank.Health.BindEntity(id)
	p.TankID = id

	mount := weapon.Mount{Tank: tank, Registry: l.registry, Bus: l.bus, Auth: l.auth}
	lo := &Loadout{
		Cannon:   weapon.NewCannon(mount),
		Launcher: weapon.NewGuidedLauncher(mount),
	}
	lo.Cannon.RequestActivate()
	l.loadouts[p.ID] = lo

	l.log.Debug("tank spawned",
		zap.Int("player_id", p.ID),
		zap.Uint64("tank_id", uint64(id)),
		zap.Int("team_id", p.TeamID),
	)
}

// Tank returns the live tank entity for a player
func (l *Logic) Tank(playerID int) (*entity.Tank, bool) {
	p, ok := l.relay.ByID(playerID)
	if !ok || p.TankID == entity.None {
		return nil, false
	}
	e, ok := l.registry.Get(p.TankID)
	if !ok {
		return nil, false
	}
	t, ok := e.(*entity.Tank)
	return t, ok
}

// Loadout returns a player's mounted weapons
func (l *Logic) Loadout(playerID int) (*Loadout, bool) {
	lo, ok := l.loadouts[playerID]
	return lo, ok
}

// onTankDied books the death, credits the killer, and queues the
// victim's respawn. Mode-specific scoring stays in the mode.
func (l *Logic) onTankDied(e event.Event) {
	de := e.(*event.DeathEvent)
	victim, ok := l.relay.ByTank(entity.ID(de.EntityID))
	if !ok {
		return
	}
	victim.Deaths++
	victim.TankID = entity.None
	delete(l.loadouts, victim.ID)

	if killer, ok := l.relay.ByID(de.KillerPlayer); ok && killer.ID != victim.ID {
		killer.Kills++
	}

	if l.phase == PhaseInProgress {
		l.respawnTimers[victim.ID] = l.cfg.RespawnDelay
	}
}

// onPlayerJoinedTeam queues a spawn for a player who picked a team
// mid-match.
func (l *Logic) onPlayerJoinedTeam(e event.Event) {
	te := e.(*event.TeamEvent)
	p, ok := l.relay.ByID(te.PlayerID)
	if !ok {
		return
	}
	p.TeamID = te.TeamID
	if l.phase == PhaseInProgress && p.TankID == entity.None {
		if _, waiting := l.respawnTimers[p.ID]; !waiting {
			l.respawnTimers[p.ID] = l.cfg.RespawnDelay
		}
	}
}

// onTeamScoreChanged ends the match as soon as a team reaches the
// score limit.
func (l *Logic) onTeamScoreChanged(e event.Event) {
	te := e.(*event.TeamEvent)
	if l.phase != PhaseInProgress || l.cfg.ScoreLimit <= 0 {
		return
	}
	if te.Score >= l.cfg.ScoreLimit {
		l.end()
	}
}

// onOwnershipTransferred rebinds a tank's player mapping and loadout
// when its owning player changes, dropping the old owner's latched
// weapon intent.
func (l *Logic) onOwnershipTransferred(e event.Event) {
	oe := e.(*event.OwnershipEvent)
	ent, ok := l.registry.Get(entity.ID(oe.EntityID))
	if !ok {
		return
	}
	if _, isTank := ent.(*entity.Tank); !isTank {
		return
	}

	if old, ok := l.relay.ByID(oe.OldOwner); ok && old.TankID == entity.ID(oe.EntityID) {
		old.TankID = entity.None
	}

	lo, hadLoadout := l.loadouts[oe.OldOwner]
	if hadLoadout {
		delete(l.loadouts, oe.OldOwner)
		lo.Cannon.SetOwned(false)
		lo.Launcher.SetOwned(false)
	}

	next, ok := l.relay.ByID(oe.NewOwner)
	if !ok {
		return
	}
	next.TankID = entity.ID(oe.EntityID)
	delete(l.respawnTimers, next.ID)
	if hadLoadout {
		lo.Cannon.SetOwned(true)
		lo.Launcher.SetOwned(true)
		l.loadouts[next.ID] = lo
	}
}

// onPlayerLeft clears match bookkeeping for a departed player
func (l *Logic) onPlayerLeft(e event.Event) {
	pe := e.(*event.PlayerEvent)
	delete(l.respawnTimers, pe.PlayerID)
	delete(l.loadouts, pe.PlayerID)
	l.teams.Leave(pe.PlayerID)
}
