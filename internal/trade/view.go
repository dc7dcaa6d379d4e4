// Package trade holds the pure helpers every view of a trade shares: who owns
// a player, whether a player is already committed, and the checks that run
// before a trade action is dispatched.
package trade

import (
	"slices"

	"github.com/omarshaarawi/tradereferee/internal/models"
)

// ResolvedPlayer is a roster entry together with the team it sits on.
type ResolvedPlayer struct {
	models.Player
	TeamID   string
	TeamName string
}

func IsPlayerInTrade(t models.Trade, playerID string) bool {
	return slices.Contains(t.TeamAOut, playerID) || slices.Contains(t.TeamBOut, playerID)
}

// CommittedSide reports which side playerID is on, if any.
func CommittedSide(t models.Trade, playerID string) (models.Side, bool) {
	switch {
	case slices.Contains(t.TeamAOut, playerID):
		return models.SideA, true
	case slices.Contains(t.TeamBOut, playerID):
		return models.SideB, true
	}
	return "", false
}

// ResolvePlayer finds the first roster entry with playerID. A miss is a valid
// outcome: ids can outlive the league they came from.
func ResolvePlayer(league *models.League, playerID string) (ResolvedPlayer, bool) {
	if league == nil {
		return ResolvedPlayer{}, false
	}
	for _, team := range league.Teams {
		for _, p := range team.Roster {
			if p.ID == playerID {
				return ResolvedPlayer{Player: p, TeamID: team.ID, TeamName: team.Name}, true
			}
		}
	}
	return ResolvedPlayer{}, false
}

// TeamRoster returns the roster of teamID, or nothing if the team is unknown.
func TeamRoster(league *models.League, teamID string) []models.Player {
	if league == nil {
		return []models.Player{}
	}
	for _, team := range league.Teams {
		if team.ID == teamID {
			return team.Roster
		}
	}
	return []models.Player{}
}

// OwningTeam returns the index of the team whose roster holds playerID.
func OwningTeam(league *models.League, playerID string) (int, bool) {
	if league == nil {
		return 0, false
	}
	for i, team := range league.Teams {
		for _, p := range team.Roster {
			if p.ID == playerID {
				return i, true
			}
		}
	}
	return 0, false
}

// SideForPlayer picks the side a player is offered from: the league's first
// team gives up teamAOut, every other team gives up teamBOut.
func SideForPlayer(league *models.League, playerID string) (models.Side, bool) {
	idx, ok := OwningTeam(league, playerID)
	if !ok {
		return "", false
	}
	if idx == 0 {
		return models.SideA, true
	}
	return models.SideB, true
}

// Resolve maps every id on side to its roster entry, skipping ids the league
// no longer knows.
func Resolve(league *models.League, ids []string) []ResolvedPlayer {
	players := make([]ResolvedPlayer, 0, len(ids))
	for _, id := range ids {
		if p, ok := ResolvePlayer(league, id); ok {
			players = append(players, p)
		}
	}
	return players
}

// ProjectedTotal sums the projected points of the resolvable ids.
func ProjectedTotal(league *models.League, ids []string) float64 {
	var total float64
	for _, p := range Resolve(league, ids) {
		total += p.ProjectedPoints
	}
	return total
}
