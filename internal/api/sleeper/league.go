package sleeper

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/omarshaarawi/tradereferee/internal/models"
)

const (
	directoryTTL       = 24 * time.Hour
	defaultSeasonWeeks = 14
)

// PlayerCache keeps the NFL player directory between league loads; the full
// directory is several megabytes.
type PlayerCache interface {
	GetPlayers() *models.PlayerDirectory
	SavePlayers(dir *models.PlayerDirectory)
}

type API struct {
	client *Client
	cache  PlayerCache
}

func NewAPI(client *Client, cache PlayerCache) *API {
	return &API{client: client, cache: cache}
}

// GetLeague loads a Sleeper league as a League with one team per roster.
func (a *API) GetLeague(ctx context.Context, leagueID string) (*models.League, error) {
	var league *models.SleeperLeagueResponse
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s", leagueID), &league); err != nil {
		return nil, fmt.Errorf("fetching league: %w", err)
	}
	if league == nil || league.LeagueID == "" {
		return nil, fmt.Errorf("league %s not found", leagueID)
	}

	var users []models.SleeperUser
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s/users", leagueID), &users); err != nil {
		return nil, fmt.Errorf("fetching league users: %w", err)
	}

	var rosters []models.SleeperRoster
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s/rosters", leagueID), &rosters); err != nil {
		return nil, fmt.Errorf("fetching league rosters: %w", err)
	}

	var state models.SleeperNFLState
	if err := a.client.Get(ctx, "/state/nfl", &state); err != nil {
		return nil, fmt.Errorf("fetching NFL state: %w", err)
	}

	directory, err := a.getPlayers(ctx)
	if err != nil {
		return nil, err
	}

	return buildLeague(league, users, rosters, state, directory.Players), nil
}

func (a *API) getPlayers(ctx context.Context) (*models.PlayerDirectory, error) {
	directory := a.cache.GetPlayers()
	if directory == nil || time.Since(directory.LastUpdated) > directoryTTL {
		var players map[string]models.SleeperPlayer
		if err := a.client.Get(ctx, "/players/nfl", &players); err != nil {
			return nil, fmt.Errorf("fetching player directory: %w", err)
		}
		directory = &models.PlayerDirectory{Players: players, LastUpdated: time.Now()}
		a.cache.SavePlayers(directory)
		slog.Info("Refreshed Sleeper player directory", "players", len(players))
	}
	return directory, nil
}

func buildLeague(
	resp *models.SleeperLeagueResponse,
	users []models.SleeperUser,
	rosters []models.SleeperRoster,
	state models.SleeperNFLState,
	players map[string]models.SleeperPlayer,
) *models.League {
	usersByID := make(map[string]models.SleeperUser, len(users))
	for _, u := range users {
		usersByID[u.UserID] = u
	}

	sort.Slice(rosters, func(i, j int) bool {
		return rosters[i].RosterID < rosters[j].RosterID
	})

	teams := make([]models.Team, 0, len(rosters))
	for _, r := range rosters {
		owner := usersByID[r.OwnerID]
		team := models.Team{
			ID:     strconv.Itoa(r.RosterID),
			Name:   teamName(owner, r.RosterID),
			Owner:  owner.DisplayName,
			Roster: make([]models.Player, 0, len(r.Players)),
		}
		if team.Owner == "" {
			team.Owner = "Unowned"
		}
		for _, id := range r.Players {
			team.Roster = append(team.Roster, toPlayer(id, players[id]))
		}
		sortRoster(team.Roster)
		teams = append(teams, team)
	}

	regularSeasonWeeks := defaultSeasonWeeks
	if resp.Settings.PlayoffWeekStart > 1 {
		regularSeasonWeeks = resp.Settings.PlayoffWeekStart - 1
	}

	return &models.League{
		ID:      resp.LeagueID,
		Name:    resp.Name,
		Teams:   teams,
		Scoring: models.ScoringRules(resp.ScoringSettings),
		Settings: models.LeagueSettings{
			RosterPositions:    rosterPositions(resp.RosterPositions),
			PlayoffTeams:       resp.Settings.PlayoffTeams,
			RegularSeasonWeeks: regularSeasonWeeks,
			CurrentWeek:        currentWeek(state),
		},
	}
}

func teamName(owner models.SleeperUser, rosterID int) string {
	if owner.Metadata.TeamName != "" {
		return owner.Metadata.TeamName
	}
	if owner.DisplayName != "" {
		return owner.DisplayName
	}
	return fmt.Sprintf("Team %d", rosterID)
}

func toPlayer(id string, p models.SleeperPlayer) models.Player {
	name := p.FullName
	if name == "" {
		name = strings.TrimSpace(p.FirstName + " " + p.LastName)
	}
	if name == "" {
		name = id
	}
	return models.Player{
		ID:        id,
		Name:      name,
		Position:  p.Position,
		Team:      p.Team,
		IsInjured: isInjured(p.InjuryStatus),
	}
}

func isInjured(status string) bool {
	switch status {
	case "Questionable", "Doubtful", "Out", "IR", "PUP":
		return true
	}
	return false
}

func sortRoster(roster []models.Player) {
	order := map[string]int{
		"QB":  1,
		"RB":  2,
		"WR":  3,
		"TE":  4,
		"K":   5,
		"DEF": 6,
	}
	rank := func(pos string) int {
		if r, ok := order[pos]; ok {
			return r
		}
		return len(order) + 1
	}
	sort.SliceStable(roster, func(i, j int) bool {
		return rank(roster[i].Position) < rank(roster[j].Position)
	})
}

// rosterPositions folds Sleeper's slot list (QB, RB, RB, FLEX, BN, ...) into
// counted starting positions. Bench, IR and taxi slots are not starters.
func rosterPositions(slots []string) []models.RosterPosition {
	var positions []models.RosterPosition
	index := make(map[string]int)
	for _, slot := range slots {
		switch slot {
		case "BN", "IR", "TAXI":
			continue
		}
		if i, ok := index[slot]; ok {
			positions[i].Count++
			continue
		}
		index[slot] = len(positions)
		positions = append(positions, models.RosterPosition{Position: slot, Count: 1, IsRequired: true})
	}
	return positions
}

func currentWeek(state models.SleeperNFLState) int {
	if state.SeasonType != "regular" {
		return 0
	}
	return state.Week
}
