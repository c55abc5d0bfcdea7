// pkg/team/team.go
package team

import (
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/replica"
)

// NoTeam marks a player not assigned to any team
const NoTeam = -1

// Team represents one side of a match. Scores only ever increase
// during a match; there is no operation that removes points.
type Team struct {
	ID      int
	Name    string
	Color   string
	Score   int
	Players map[int]struct{}
}

// Manager owns the team list for a match. Team ids are dense list
// positions from the configured team order. Membership and scores
// change on the server only; a replicated client holds a read view.
type Manager struct {
	auth  *replica.Authority
	bus   *event.Bus
	teams []*Team
}

// NewManager creates an empty team manager
func NewManager(auth *replica.Authority, bus *event.Bus) *Manager {
	return &Manager{auth: auth, bus: bus}
}

// TeamSpec names one team to create
type TeamSpec struct {
	Name  string
	Color string
}

// CreateTeams builds the team list from the configured order. Ids are
// positions in the list. Calling it again is a no-op so repeated match
// setup cannot wipe scores or membership.
func (m *Manager) CreateTeams(specs []TeamSpec) {
	if len(m.teams) > 0 {
		return
	}
	for i, spec := range specs {
		m.teams = append(m.teams, &Team{
			ID:      i,
			Name:    spec.Name,
			Color:   spec.Color,
			Players: make(map[int]struct{}),
		})
	}
}

// Get returns a team by id
func (m *Manager) Get(teamID int) (*Team, bool) {
	if teamID < 0 || teamID >= len(m.teams) {
		return nil, false
	}
	return m.teams[teamID], true
}

// Count returns the number of teams
func (m *Manager) Count() int {
	return len(m.teams)
}

// Teams returns the teams in id order
func (m *Manager) Teams() []*Team {
	return m.teams
}

// TeamOf returns the team a player belongs to, or NoTeam
func (m *Manager) TeamOf(playerID int) int {
	for _, t := range m.teams {
		if _, ok := t.Players[playerID]; ok {
			return t.ID
		}
	}
	return NoTeam
}

// AddScore credits points to a team. Zero and negative amounts change
// nothing and publish nothing.
func (m *Manager) AddScore(teamID, amount int) {
	if !m.auth.IsServer() || amount <= 0 {
		return
	}
	t, ok := m.Get(teamID)
	if !ok {
		return
	}
	t.Score += amount
	m.bus.Publish(event.NewTeamEvent(event.TeamScoreChanged, m, teamID, -1, t.Score))
}

// Join moves a player onto a team. If the player is on another team
// the leave event goes out before the join event.
func (m *Manager) Join(playerID, teamID int) bool {
	if !m.auth.IsServer() {
		return false
	}
	target, ok := m.Get(teamID)
	if !ok {
		return false
	}

	current := m.TeamOf(playerID)
	if current == teamID {
		return true
	}
	if current != NoTeam {
		m.leave(playerID, current)
	}

	target.Players[playerID] = struct{}{}
	m.bus.Publish(event.NewTeamEvent(event.PlayerJoinedTeam, m, teamID, playerID, target.Score))
	return true
}

// Leave removes a player from their team, if any
func (m *Manager) Leave(playerID int) {
	if !m.auth.IsServer() {
		return
	}
	current := m.TeamOf(playerID)
	if current == NoTeam {
		return
	}
	m.leave(playerID, current)
}

func (m *Manager) leave(playerID, teamID int) {
	t := m.teams[teamID]
	delete(t.Players, playerID)
	m.bus.Publish(event.NewTeamEvent(event.PlayerLeftTeam, m, teamID, playerID, t.Score))
}

// AutoAssign places a player on the team with the fewest members,
// breaking ties toward the lowest team id.
func (m *Manager) AutoAssign(playerID int) int {
	if len(m.teams) == 0 {
		return NoTeam
	}
	best := m.teams[0]
	for _, t := range m.teams[1:] {
		if len(t.Players) < len(best.Players) {
			best = t
		}
	}
	m.Join(playerID, best.ID)
	return best.ID
}

// Scores returns a snapshot of team scores by id
func (m *Manager) Scores() map[int]int {
	out := make(map[int]int, len(m.teams))
	for _, t := range m.teams {
		out[t.ID] = t.Score
	}
	return out
}

// Leader returns the team with the highest score, ties broken toward
// the lowest id.
func (m *Manager) Leader() (int, int) {
	winner := NoTeam
	bestScore := -1
	for _, t := range m.teams {
		if t.Score > bestScore {
			winner = t.ID
			bestScore = t.Score
		}
	}
	return winner, bestScore
}
