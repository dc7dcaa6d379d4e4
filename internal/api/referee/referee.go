package referee

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/omarshaarawi/tradereferee/internal/models"
)

const demoLeaguePath = "/data/demo/league.json"

// GradeTrade asks the service for a fairness grade. It needs no session.
func (c *Client) GradeTrade(ctx context.Context, ref LeagueRef, t models.Trade) (*models.TradeGrade, error) {
	if ref == nil {
		return nil, fmt.Errorf("grade trade: missing league reference")
	}
	var grade models.TradeGrade
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.apiURL("/grade-trade"),
		body:   newTradeRequest(ref, t),
	}, &grade)
	if err != nil {
		return nil, err
	}
	return &grade, nil
}

// SimulateLeague runs the service's season simulation for the trade.
func (c *Client) SimulateLeague(ctx context.Context, ref LeagueRef, t models.Trade, weeksRemaining, iterations int) (*models.SimulationResult, error) {
	if ref == nil {
		return nil, fmt.Errorf("simulate league: missing league reference")
	}
	var result models.SimulationResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.apiURL("/simulate-league"),
		body: simulateRequest{
			tradeRequest:   newTradeRequest(ref, t),
			WeeksRemaining: weeksRemaining,
			Iterations:     iterations,
		},
		auth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SuggestCounterOffers(ctx context.Context, ref LeagueRef, t models.Trade, maxSuggestions int) (*models.CounterOfferSet, error) {
	if ref == nil {
		return nil, fmt.Errorf("suggest counter-offers: missing league reference")
	}
	var offers models.CounterOfferSet
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.apiURL("/suggest-counteroffers"),
		body: counterOfferRequest{
			tradeRequest:   newTradeRequest(ref, t),
			MaxSuggestions: maxSuggestions,
		},
		auth: true,
	}, &offers)
	if err != nil {
		return nil, err
	}
	return &offers, nil
}

func (c *Client) GetInjuryNotes(ctx context.Context, playerIDs []string) (*models.InjuryNotes, error) {
	params := url.Values{}
	for _, id := range playerIDs {
		params.Add("playerIds", id)
	}

	var notes models.InjuryNotes
	err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.apiURL("/injury-notes"),
		params: params,
		auth:   true,
	}, &notes)
	if err != nil {
		return nil, err
	}
	return &notes, nil
}

// Activate exchanges a subscription email for pro access.
func (c *Client) Activate(ctx context.Context, email string) (*models.Activation, error) {
	var activation models.Activation
	err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.apiURL("/activate"),
		params: url.Values{"email": []string{email}},
	}, &activation)
	if err != nil {
		return nil, err
	}
	return &activation, nil
}

// LoadDemoData fetches the bundled demo league fixture.
func (c *Client) LoadDemoData(ctx context.Context) (*models.League, error) {
	var league models.League
	err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.assetsURL + demoLeaguePath,
	}, &league)
	if err != nil {
		return nil, err
	}
	return &league, nil
}
