package fantasy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/omarshaarawi/tradereferee/internal/api/referee"
	"github.com/omarshaarawi/tradereferee/internal/api/sleeper"
	"github.com/omarshaarawi/tradereferee/internal/models"
)

// MalformedInputError is an uploaded league file that cannot be used.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("Invalid JSON file format: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

type API struct {
	refereeClient *referee.Client
	sleeperAPI    *sleeper.API
}

func NewAPI(refereeClient *referee.Client, sleeperAPI *sleeper.API) *API {
	return &API{refereeClient: refereeClient, sleeperAPI: sleeperAPI}
}

// Referee returns the service client authenticated as token.
func (a *API) Referee(token string) *referee.Client {
	return a.refereeClient.WithToken(token)
}

func (a *API) LoadDemoLeague(ctx context.Context) (*models.League, error) {
	return a.refereeClient.LoadDemoData(ctx)
}

func (a *API) LoadSleeperLeague(ctx context.Context, leagueID string) (*models.League, error) {
	return a.sleeperAPI.GetLeague(ctx, leagueID)
}

// ParseManualLeague decodes an uploaded league file and checks that team and
// player ids are unique within it.
func ParseManualLeague(data []byte) (*models.League, error) {
	var league models.League
	if err := json.Unmarshal(data, &league); err != nil {
		return nil, &MalformedInputError{Err: err}
	}
	if len(league.Teams) == 0 {
		return nil, &MalformedInputError{Err: errors.New("league has no teams")}
	}

	teamIDs := make(map[string]bool, len(league.Teams))
	playerIDs := make(map[string]bool)
	for i, team := range league.Teams {
		if team.ID == "" {
			return nil, &MalformedInputError{Err: fmt.Errorf("team %d has no id", i+1)}
		}
		if teamIDs[team.ID] {
			return nil, &MalformedInputError{Err: fmt.Errorf("duplicate team id %q", team.ID)}
		}
		teamIDs[team.ID] = true

		for _, p := range team.Roster {
			if p.ID == "" {
				return nil, &MalformedInputError{Err: fmt.Errorf("team %q has a player without an id", team.ID)}
			}
			if playerIDs[p.ID] {
				return nil, &MalformedInputError{Err: fmt.Errorf("duplicate player id %q", p.ID)}
			}
			playerIDs[p.ID] = true
		}
	}
	if league.Name == "" {
		league.Name = "Uploaded League"
	}

	return &league, nil
}
