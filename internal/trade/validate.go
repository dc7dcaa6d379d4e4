package trade

import (
	"fmt"

	"github.com/omarshaarawi/tradereferee/internal/models"
)

// ValidationError is a rejection raised before anything is dispatched; the
// state is left untouched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var (
	ErrNoLeague      = &ValidationError{Message: "Please select and load a league data source to start building trades."}
	ErrIncomplete    = &ValidationError{Message: "Please add players to both sides of the trade"}
	ErrNotAnalyzed   = &ValidationError{Message: "Please analyze a trade first"}
	ErrProRequired   = &ValidationError{Message: "This is a Pro feature. Use /upgrade to unlock simulations, counter-offers and injury analysis."}
	ErrRequestActive = &ValidationError{Message: "A request is already in progress, please wait for it to finish."}
)

// CheckAdd reports why playerID cannot be added to side, if it cannot.
func CheckAdd(league *models.League, t models.Trade, playerID string, side models.Side) error {
	if league == nil {
		return ErrNoLeague
	}
	if !side.Valid() {
		return invalid("unknown trade side %q", side)
	}
	p, ok := ResolvePlayer(league, playerID)
	if !ok {
		return invalid("player %q is not in league %s", playerID, league.Name)
	}
	if committed, ok := CommittedSide(t, playerID); ok {
		if committed == side {
			return invalid("%s is already in the trade", p.Name)
		}
		return invalid("%s is already offered by the other side", p.Name)
	}
	return nil
}

// CheckRemove reports why playerID cannot be removed from side, if it cannot.
func CheckRemove(t models.Trade, playerID string, side models.Side) error {
	if !side.Valid() {
		return invalid("unknown trade side %q", side)
	}
	if committed, ok := CommittedSide(t, playerID); !ok || committed != side {
		return invalid("player %q is not on that side of the trade", playerID)
	}
	return nil
}

// CheckComplete reports whether t can be sent for grading against league.
func CheckComplete(league *models.League, t models.Trade) error {
	if league == nil {
		return ErrNoLeague
	}
	if len(t.TeamAOut) == 0 || len(t.TeamBOut) == 0 {
		return ErrIncomplete
	}
	for _, id := range t.PlayerIDs() {
		if _, ok := ResolvePlayer(league, id); !ok {
			return invalid("player %q is not in league %s, clear the trade and try again", id, league.Name)
		}
	}
	return nil
}
