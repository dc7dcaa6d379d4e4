package store

import "github.com/omarshaarawi/tradereferee/internal/models"

// Action is the closed set of state transitions. Only types in this package
// implement it.
type Action interface {
	Name() string
	action()
}

type SetUser struct{ Patch UserPatch }

type SetLeague struct{ League *models.League }

type SetLeagueSource struct{ Source models.LeagueSource }

type AddPlayerToTrade struct {
	PlayerID string
	Side     models.Side
}

type RemovePlayerFromTrade struct {
	PlayerID string
	Side     models.Side
}

type ClearTrade struct{}

type SetTradeGrade struct{ Grade *models.TradeGrade }

type SetSimulationResult struct{ Result *models.SimulationResult }

type SetCounterOffers struct{ Offers *models.CounterOfferSet }

type SetLoading struct{ Loading bool }

// SetError records a user-visible failure; an empty Message clears it.
type SetError struct{ Message string }

type SetActiveTab struct{ Tab Tab }

type ClearResults struct{}

func (SetUser) Name() string               { return "SET_USER" }
func (SetLeague) Name() string             { return "SET_LEAGUE" }
func (SetLeagueSource) Name() string       { return "SET_LEAGUE_SOURCE" }
func (AddPlayerToTrade) Name() string      { return "ADD_PLAYER_TO_TRADE" }
func (RemovePlayerFromTrade) Name() string { return "REMOVE_PLAYER_FROM_TRADE" }
func (ClearTrade) Name() string            { return "CLEAR_TRADE" }
func (SetTradeGrade) Name() string         { return "SET_TRADE_GRADE" }
func (SetSimulationResult) Name() string   { return "SET_SIMULATION_RESULT" }
func (SetCounterOffers) Name() string      { return "SET_COUNTER_OFFERS" }
func (SetLoading) Name() string            { return "SET_LOADING" }
func (SetError) Name() string              { return "SET_ERROR" }
func (SetActiveTab) Name() string          { return "SET_ACTIVE_TAB" }
func (ClearResults) Name() string          { return "CLEAR_RESULTS" }

func (SetUser) action()               {}
func (SetLeague) action()             {}
func (SetLeagueSource) action()       {}
func (AddPlayerToTrade) action()      {}
func (RemovePlayerFromTrade) action() {}
func (ClearTrade) action()            {}
func (SetTradeGrade) action()         {}
func (SetSimulationResult) action()   {}
func (SetCounterOffers) action()      {}
func (SetLoading) action()            {}
func (SetError) action()              {}
func (SetActiveTab) action()          {}
func (ClearResults) action()          {}
