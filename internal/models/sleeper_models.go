package models

import "time"

type SleeperLeagueResponse struct {
	LeagueID        string             `json:"league_id"`
	Name            string             `json:"name"`
	Season          string             `json:"season"`
	Status          string             `json:"status"`
	TotalRosters    int                `json:"total_rosters"`
	RosterPositions []string           `json:"roster_positions"`
	ScoringSettings map[string]float64 `json:"scoring_settings"`
	Settings        SleeperSettings    `json:"settings"`
}

type SleeperSettings struct {
	PlayoffTeams     int `json:"playoff_teams"`
	PlayoffWeekStart int `json:"playoff_week_start"`
}

type SleeperUser struct {
	UserID      string              `json:"user_id"`
	DisplayName string              `json:"display_name"`
	Metadata    SleeperUserMetadata `json:"metadata"`
}

type SleeperUserMetadata struct {
	TeamName string `json:"team_name"`
}

type SleeperRoster struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
	Starters []string `json:"starters"`
}

type SleeperPlayer struct {
	PlayerID     string `json:"player_id"`
	FullName     string `json:"full_name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Position     string `json:"position"`
	Team         string `json:"team"`
	InjuryStatus string `json:"injury_status"`
}

type SleeperNFLState struct {
	Week       int    `json:"week"`
	Season     string `json:"season"`
	SeasonType string `json:"season_type"`
}

// PlayerDirectory is the cached NFL player pool keyed by Sleeper player id.
type PlayerDirectory struct {
	Players     map[string]SleeperPlayer
	LastUpdated time.Time
}
