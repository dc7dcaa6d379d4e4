package trade

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/omarshaarawi/tradereferee/internal/models"
)

const (
	playerSimilarityThreshold = 0.7
	teamSimilarityThreshold   = 0.6
)

// FindPlayer looks a player up by id, then by name. Names match when the
// query's letters appear in order in the name (closest wins), or when the
// edit distance is small enough to be a typo.
func FindPlayer(league *models.League, query string) (ResolvedPlayer, bool) {
	query = strings.TrimSpace(query)
	if league == nil || query == "" {
		return ResolvedPlayer{}, false
	}
	if p, ok := ResolvePlayer(league, query); ok {
		return p, true
	}

	var names []string
	var entries []ResolvedPlayer
	for _, team := range league.Teams {
		for _, p := range team.Roster {
			names = append(names, p.Name)
			entries = append(entries, ResolvedPlayer{Player: p, TeamID: team.ID, TeamName: team.Name})
		}
	}

	idx, ok := bestMatch(query, names, playerSimilarityThreshold)
	if !ok {
		return ResolvedPlayer{}, false
	}
	return entries[idx], true
}

// FindTeam looks a team up by id, then by name.
func FindTeam(league *models.League, query string) (models.Team, bool) {
	query = strings.TrimSpace(query)
	if league == nil || query == "" {
		return models.Team{}, false
	}

	names := make([]string, len(league.Teams))
	for i, team := range league.Teams {
		if team.ID == query {
			return team, true
		}
		names[i] = team.Name
	}

	idx, ok := bestMatch(query, names, teamSimilarityThreshold)
	if !ok {
		return models.Team{}, false
	}
	return league.Teams[idx], true
}

func bestMatch(query string, candidates []string, threshold float64) (int, bool) {
	ranks := fuzzy.RankFindNormalizedFold(query, candidates)
	if len(ranks) > 0 {
		best := ranks[0]
		for _, r := range ranks[1:] {
			if r.Distance < best.Distance {
				best = r
			}
		}
		return best.OriginalIndex, true
	}

	bestIdx := -1
	bestScore := threshold
	lower := strings.ToLower(query)
	for i, name := range candidates {
		candidate := strings.ToLower(name)
		distance := fuzzy.LevenshteinDistance(lower, candidate)
		maxLen := float64(max(len(lower), len(candidate)))
		if maxLen == 0 {
			continue
		}
		similarity := 1 - float64(distance)/maxLen
		if similarity > bestScore {
			bestScore = similarity
			bestIdx = i
		}
	}
	return bestIdx, bestIdx >= 0
}
