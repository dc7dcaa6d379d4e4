package models

import "slices"

type LeagueSource string

const (
	SourceDemo    LeagueSource = "demo"
	SourceSleeper LeagueSource = "sleeper"
	SourceManual  LeagueSource = "manual"
)

func (s LeagueSource) Valid() bool {
	switch s {
	case SourceDemo, SourceSleeper, SourceManual:
		return true
	}
	return false
}

type League struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Teams    []Team         `json:"teams"`
	Scoring  ScoringRules   `json:"scoring"`
	Settings LeagueSettings `json:"settings"`
}

// ScoringRules maps a stat category (passingYards, receptions, ...) to its
// points multiplier.
type ScoringRules map[string]float64

type LeagueSettings struct {
	RosterPositions    []RosterPosition `json:"rosterPositions,omitempty"`
	PlayoffTeams       int              `json:"playoffTeams"`
	RegularSeasonWeeks int              `json:"regularSeasonWeeks"`
	CurrentWeek        int              `json:"currentWeek"`
}

// WeeksRemaining is the number of regular-season weeks left, never negative.
func (s LeagueSettings) WeeksRemaining() int {
	return max(s.RegularSeasonWeeks-s.CurrentWeek, 0)
}

type RosterPosition struct {
	Position   string `json:"position"`
	Count      int    `json:"count"`
	IsRequired bool   `json:"isRequired"`
}

type Team struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Owner  string   `json:"owner"`
	Roster []Player `json:"roster"`
}

// Player ids are unique within a league only. Ownership is implied by the
// roster the player appears on.
type Player struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Position        string  `json:"position"`
	Team            string  `json:"team"`
	ProjectedPoints float64 `json:"projectedPoints"`
	IsInjured       bool    `json:"isInjured,omitempty"`
	ByeWeek         int     `json:"byeWeek,omitempty"`
}

type Side string

const (
	SideA Side = "teamAOut"
	SideB Side = "teamBOut"
)

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Trade lists what each side gives up. Set semantics are enforced when
// players are added, not by the structure itself.
type Trade struct {
	TeamAOut []string `json:"teamAOut"`
	TeamBOut []string `json:"teamBOut"`
}

func EmptyTrade() Trade {
	return Trade{TeamAOut: []string{}, TeamBOut: []string{}}
}

func (t Trade) Side(side Side) []string {
	if side == SideA {
		return t.TeamAOut
	}
	return t.TeamBOut
}

// WithSide returns a copy of t with the given side replaced.
func (t Trade) WithSide(side Side, ids []string) Trade {
	if side == SideA {
		t.TeamAOut = ids
	} else {
		t.TeamBOut = ids
	}
	return t
}

func (t Trade) IsEmpty() bool {
	return len(t.TeamAOut) == 0 && len(t.TeamBOut) == 0
}

// PlayerIDs returns side A followed by side B.
func (t Trade) PlayerIDs() []string {
	ids := make([]string, 0, len(t.TeamAOut)+len(t.TeamBOut))
	ids = append(ids, t.TeamAOut...)
	return append(ids, t.TeamBOut...)
}

func (t Trade) Equal(other Trade) bool {
	return slices.Equal(t.TeamAOut, other.TeamAOut) && slices.Equal(t.TeamBOut, other.TeamBOut)
}
