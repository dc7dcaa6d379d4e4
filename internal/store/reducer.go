package store

import (
	"slices"

	"github.com/omarshaarawi/tradereferee/internal/models"
)

// Reduce returns the state that follows s after applying a. It has no side
// effects and never fails; actions it does not recognise leave s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetUser:
		if a.Patch.Tier != nil {
			s.User.Tier = *a.Patch.Tier
		}
		if a.Patch.Token != nil {
			s.User.Token = *a.Patch.Token
		}
		return s

	case SetLeague:
		s.League = a.League
		return s

	case SetLeagueSource:
		s.LeagueSource = a.Source
		s.League = nil
		s.Trade = models.EmptyTrade()
		return s.withoutResults()

	case AddPlayerToTrade:
		return addPlayer(s, a.PlayerID, a.Side)

	case RemovePlayerFromTrade:
		return removePlayer(s, a.PlayerID, a.Side)

	case ClearTrade:
		s.Trade = models.EmptyTrade()
		return s.withoutResults()

	case SetTradeGrade:
		s.TradeGrade = a.Grade
		return s

	case SetSimulationResult:
		s.SimulationResult = a.Result
		return s

	case SetCounterOffers:
		s.CounterOffers = a.Offers
		return s

	case SetLoading:
		s.Loading = a.Loading
		return s

	case SetError:
		s.Error = a.Message
		s.Loading = false
		return s

	case SetActiveTab:
		if !a.Tab.Valid() {
			return s
		}
		s.ActiveTab = a.Tab
		return s

	case ClearResults:
		return s.withoutResults()
	}

	return s
}

// addPlayer refuses ids already committed to either side so the two sides
// stay disjoint.
func addPlayer(s State, playerID string, side models.Side) State {
	if !side.Valid() || playerID == "" {
		return s
	}
	if slices.Contains(s.Trade.TeamAOut, playerID) || slices.Contains(s.Trade.TeamBOut, playerID) {
		return s
	}

	ids := append(slices.Clone(s.Trade.Side(side)), playerID)
	s.Trade = s.Trade.WithSide(side, ids)
	return s.withoutResults()
}

func removePlayer(s State, playerID string, side models.Side) State {
	if !side.Valid() {
		return s
	}
	current := s.Trade.Side(side)
	if !slices.Contains(current, playerID) {
		return s
	}

	ids := make([]string, 0, len(current))
	for _, id := range current {
		if id != playerID {
			ids = append(ids, id)
		}
	}
	s.Trade = s.Trade.WithSide(side, ids)
	return s.withoutResults()
}
