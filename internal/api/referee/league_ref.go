package referee

import (
	"fmt"

	"github.com/omarshaarawi/tradereferee/internal/models"
)

// LeagueRef tells the service which league a trade is evaluated against.
// Each variant carries exactly the fields its source needs on the wire.
type LeagueRef interface {
	Source() models.LeagueSource
	apply(*tradeRequest)
}

// DemoLeague refers to the service's own bundled demo league.
type DemoLeague struct{}

// ManualLeague ships the full rosters and scoring, the service has no other
// copy of an uploaded league.
type ManualLeague struct {
	Teams   []models.Team
	Scoring models.ScoringRules
}

// SleeperLeague lets the service fetch or reuse its cache of the league.
type SleeperLeague struct {
	LeagueID string
}

func (DemoLeague) Source() models.LeagueSource    { return models.SourceDemo }
func (ManualLeague) Source() models.LeagueSource  { return models.SourceManual }
func (SleeperLeague) Source() models.LeagueSource { return models.SourceSleeper }

func (DemoLeague) apply(r *tradeRequest) {
	r.LeagueSource = models.SourceDemo
}

func (m ManualLeague) apply(r *tradeRequest) {
	r.LeagueSource = models.SourceManual
	teams := m.Teams
	if teams == nil {
		teams = []models.Team{}
	}
	scoring := m.Scoring
	if scoring == nil {
		scoring = models.ScoringRules{}
	}
	r.Teams = &teams
	r.Scoring = &scoring
}

func (s SleeperLeague) apply(r *tradeRequest) {
	r.LeagueSource = models.SourceSleeper
	id := s.LeagueID
	r.SleeperLeagueID = &id
}

// RefFor builds the reference for the league currently loaded from source.
func RefFor(source models.LeagueSource, league *models.League) (LeagueRef, error) {
	switch source {
	case models.SourceDemo:
		return DemoLeague{}, nil
	case models.SourceManual:
		if league == nil {
			return nil, fmt.Errorf("manual source without a loaded league")
		}
		return ManualLeague{Teams: league.Teams, Scoring: league.Scoring}, nil
	case models.SourceSleeper:
		if league == nil || league.ID == "" {
			return nil, fmt.Errorf("sleeper source without a league id")
		}
		return SleeperLeague{LeagueID: league.ID}, nil
	}
	return nil, fmt.Errorf("unknown league source %q", source)
}

type tradeRequest struct {
	LeagueSource    models.LeagueSource  `json:"leagueSource"`
	Trade           models.Trade         `json:"trade"`
	Teams           *[]models.Team       `json:"teams,omitempty"`
	Scoring         *models.ScoringRules `json:"scoring,omitempty"`
	SleeperLeagueID *string              `json:"sleeperLeagueId,omitempty"`
}

func newTradeRequest(ref LeagueRef, t models.Trade) tradeRequest {
	if t.TeamAOut == nil {
		t.TeamAOut = []string{}
	}
	if t.TeamBOut == nil {
		t.TeamBOut = []string{}
	}
	r := tradeRequest{Trade: t}
	ref.apply(&r)
	return r
}

type simulateRequest struct {
	tradeRequest
	WeeksRemaining int `json:"weeksRemaining"`
	Iterations     int `json:"iterations"`
}

type counterOfferRequest struct {
	tradeRequest
	MaxSuggestions int `json:"maxSuggestions"`
}
