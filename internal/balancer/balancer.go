// internal/balancer/balancer.go

// Package balancer splits a confirmed roster into two teams, spreading
// goalkeepers first, then outfield positions, then everyone left, always
// feeding the team with the lower cumulative level.
package balancer

import (
	"cmp"
	"slices"
)

const (
	TeamAName = "Equipo A"
	TeamBName = "Equipo B"

	WarningNoGoalkeepers    = "no confirmed goalkeepers"
	WarningSingleGoalkeeper = "only one confirmed goalkeeper"
)

// Outfield positions are distributed in this order, defense first.
var fieldPositions = []Position{Defender, Midfielder, Forward}

// Player is one confirmed attendee. ID is caller-defined and carried through
// untouched; the balancer never reads it.
type Player struct {
	ID        int64      `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string     `json:"name" yaml:"name"`
	Level     int        `json:"level" yaml:"level"`
	Positions []Position `json:"positions" yaml:"positions"`
}

// Plays reports whether the player declared the given position.
func (p Player) Plays(position Position) bool {
	return slices.Contains(p.Positions, position)
}

// Team is one side of a balanced match. Score is the sum of its players' levels.
type Team struct {
	Name    string   `json:"name"`
	Players []Player `json:"players"`
	Score   int      `json:"score"`
}

// add is the only way players join a team, so Score always equals the sum of
// the members' levels.
func (t *Team) add(player Player) {
	t.Players = append(t.Players, player)
	t.Score += player.Level
}

// Result holds both teams and any roster warnings.
type Result struct {
	TeamA    Team     `json:"teamA"`
	TeamB    Team     `json:"teamB"`
	Warnings []string `json:"warnings"`
}

// Difference is the absolute score gap between the two teams.
func (r Result) Difference() int {
	if r.TeamA.Score >= r.TeamB.Score {
		return r.TeamA.Score - r.TeamB.Score
	}
	return r.TeamB.Score - r.TeamA.Score
}

type state struct {
	players  []Player
	teamA    Team
	teamB    Team
	used     []bool
	warnings []string
}

// Balance assigns every player to exactly one of two teams. It is
// deterministic and keeps no state between calls.
func Balance(players []Player) Result {
	s := &state{
		players:  players,
		teamA:    Team{Name: TeamAName, Players: []Player{}},
		teamB:    Team{Name: TeamBName, Players: []Player{}},
		used:     make([]bool, len(players)),
		warnings: []string{},
	}

	var goalkeepers, rest []int
	for idx, player := range players {
		if player.Plays(Goalkeeper) {
			goalkeepers = append(goalkeepers, idx)
		} else {
			rest = append(rest, idx)
		}
	}

	s.assignGoalkeepers(goalkeepers)
	for _, position := range fieldPositions {
		s.assignPosition(rest, position)
	}
	s.assignLeftovers(rest)

	return Result{
		TeamA:    s.teamA,
		TeamB:    s.teamB,
		Warnings: s.warnings,
	}
}

// weaker returns the team with the lower score. Team A wins ties.
func (s *state) weaker() *Team {
	if s.teamA.Score <= s.teamB.Score {
		return &s.teamA
	}
	return &s.teamB
}

func (s *state) assign(team *Team, idx int) {
	team.add(s.players[idx])
	s.used[idx] = true
}

func (s *state) assignGoalkeepers(goalkeepers []int) {
	switch len(goalkeepers) {
	case 0:
		s.warnings = append(s.warnings, WarningNoGoalkeepers)
	case 1:
		s.assign(s.weaker(), goalkeepers[0])
		s.warnings = append(s.warnings, WarningSingleGoalkeeper)
	default:
		s.assign(&s.teamA, goalkeepers[0])
		s.assign(&s.teamB, goalkeepers[1])
		for _, idx := range goalkeepers[2:] {
			s.assign(s.weaker(), idx)
		}
	}
}

func (s *state) assignPosition(rest []int, position Position) {
	candidates := make([]int, 0, len(rest))
	for _, idx := range rest {
		if !s.used[idx] && s.players[idx].Plays(position) {
			candidates = append(candidates, idx)
		}
	}
	slices.SortStableFunc(candidates, func(a, b int) int {
		return cmp.Compare(s.players[b].Level, s.players[a].Level)
	})
	for _, idx := range candidates {
		s.assign(s.weaker(), idx)
	}
}

// assignLeftovers places players with no matching outfield position, in
// roster order.
func (s *state) assignLeftovers(rest []int) {
	for _, idx := range rest {
		if !s.used[idx] {
			s.assign(s.weaker(), idx)
		}
	}
}
