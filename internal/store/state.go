// Package store holds the application state tree for one user session and
// the pure reducer that evolves it.
package store

import "github.com/omarshaarawi/tradereferee/internal/models"

type Tab string

const (
	TabBuild   Tab = "build"
	TabResults Tab = "results"
	TabPro     Tab = "pro"
)

func (t Tab) Valid() bool {
	return t == TabBuild || t == TabResults || t == TabPro
}

type User struct {
	Tier  models.Tier
	Token string
}

// UserPatch carries the fields of a SetUser merge. Nil fields are left as is.
type UserPatch struct {
	Tier  *models.Tier
	Token *string
}

// State is the aggregate root. Values handed out by a Store must be treated
// as read-only: slices and pointers are shared with the store's copy.
type State struct {
	User         User
	League       *models.League
	LeagueSource models.LeagueSource

	Trade models.Trade

	// Each result is nil or was computed for the current Trade.
	TradeGrade       *models.TradeGrade
	SimulationResult *models.SimulationResult
	CounterOffers    *models.CounterOfferSet

	Loading   bool
	Error     string
	ActiveTab Tab
}

// Initial returns the state a session starts with. token is the persisted
// bearer token, if any.
func Initial(token string) State {
	return State{
		User:         User{Tier: models.TierFree, Token: token},
		LeagueSource: models.SourceDemo,
		Trade:        models.EmptyTrade(),
		ActiveTab:    TabBuild,
	}
}

func (s State) HasResults() bool {
	return s.TradeGrade != nil || s.SimulationResult != nil || s.CounterOffers != nil
}

func (s State) IsPro() bool {
	return s.User.Tier == models.TierPro
}

func (s State) withoutResults() State {
	s.TradeGrade = nil
	s.SimulationResult = nil
	s.CounterOffers = nil
	return s
}
