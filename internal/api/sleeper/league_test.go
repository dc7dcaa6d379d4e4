package sleeper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/omarshaarawi/tradereferee/internal/api/sleeper"
	"github.com/omarshaarawi/tradereferee/internal/config"
	"github.com/omarshaarawi/tradereferee/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	dir   *models.PlayerDirectory
	saves int
}

func (f *fakeCache) GetPlayers() *models.PlayerDirectory { return f.dir }

func (f *fakeCache) SavePlayers(dir *models.PlayerDirectory) {
	f.dir = dir
	f.saves++
}

func sleeperServer(t *testing.T, playerCalls *int) *httptest.Server {
	t.Helper()
	routes := map[string]string{
		"/league/123": `{"league_id":"123","name":"Dynasty Degens","season":"2024",
			"roster_positions":["QB","RB","RB","WR","WR","TE","FLEX","BN","BN","IR"],
			"scoring_settings":{"rec":0.5,"pass_td":4},
			"settings":{"playoff_teams":6,"playoff_week_start":15}}`,
		"/league/123/users": `[{"user_id":"u1","display_name":"alex","metadata":{"team_name":"Gridiron Gurus"}},
			{"user_id":"u2","display_name":"sam","metadata":{}}]`,
		"/league/123/rosters": `[{"roster_id":2,"owner_id":"u2","players":["4046","9999"]},
			{"roster_id":1,"owner_id":"u1","players":["4034","4984"]}]`,
		"/state/nfl": `{"week":6,"season":"2024","season_type":"regular"}`,
		"/players/nfl": `{
			"4984":{"player_id":"4984","full_name":"Josh Allen","position":"QB","team":"BUF"},
			"4034":{"player_id":"4034","full_name":"Christian McCaffrey","position":"RB","team":"SF","injury_status":"IR"},
			"4046":{"player_id":"4046","full_name":"Patrick Mahomes","position":"QB","team":"KC","injury_status":""}}`,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/players/nfl" {
			*playerCalls++
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.Write([]byte("null"))
			return
		}
		w.Write([]byte(body))
	}))
}

func TestGetLeague(t *testing.T) {
	var playerCalls int
	srv := sleeperServer(t, &playerCalls)
	defer srv.Close()

	cache := &fakeCache{}
	api := sleeper.NewAPI(sleeper.NewClient(config.SleeperAPI{BaseURL: srv.URL}), cache)

	league, err := api.GetLeague(context.Background(), "123")
	require.NoError(t, err)

	assert.Equal(t, "123", league.ID)
	assert.Equal(t, "Dynasty Degens", league.Name)
	require.Len(t, league.Teams, 2)

	first := league.Teams[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "Gridiron Gurus", first.Name)
	assert.Equal(t, "alex", first.Owner)
	require.Len(t, first.Roster, 2)
	assert.Equal(t, "Josh Allen", first.Roster[0].Name, "quarterbacks sort first")
	assert.True(t, first.Roster[1].IsInjured)

	second := league.Teams[1]
	assert.Equal(t, "sam", second.Name)
	require.Len(t, second.Roster, 2)
	assert.Equal(t, "9999", second.Roster[1].Name, "unknown ids keep their id as name")

	assert.InDelta(t, 0.5, league.Scoring["rec"], 0.001)
	assert.Equal(t, 6, league.Settings.PlayoffTeams)
	assert.Equal(t, 14, league.Settings.RegularSeasonWeeks)
	assert.Equal(t, 6, league.Settings.CurrentWeek)
	assert.Equal(t, []models.RosterPosition{
		{Position: "QB", Count: 1, IsRequired: true},
		{Position: "RB", Count: 2, IsRequired: true},
		{Position: "WR", Count: 2, IsRequired: true},
		{Position: "TE", Count: 1, IsRequired: true},
		{Position: "FLEX", Count: 1, IsRequired: true},
	}, league.Settings.RosterPositions)

	_, err = api.GetLeague(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, 1, playerCalls, "player directory is served from cache")
	assert.Equal(t, 1, cache.saves)
}

func TestGetLeague_RefreshesStaleDirectory(t *testing.T) {
	var playerCalls int
	srv := sleeperServer(t, &playerCalls)
	defer srv.Close()

	cache := &fakeCache{dir: &models.PlayerDirectory{LastUpdated: time.Now().Add(-48 * time.Hour)}}
	api := sleeper.NewAPI(sleeper.NewClient(config.SleeperAPI{BaseURL: srv.URL}), cache)

	_, err := api.GetLeague(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, 1, playerCalls)
}

func TestGetLeague_NotFound(t *testing.T) {
	var playerCalls int
	srv := sleeperServer(t, &playerCalls)
	defer srv.Close()

	api := sleeper.NewAPI(sleeper.NewClient(config.SleeperAPI{BaseURL: srv.URL}), &fakeCache{})

	_, err := api.GetLeague(context.Background(), "404")
	assert.ErrorContains(t, err, "not found")
}

func TestGetLeague_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := sleeper.NewAPI(sleeper.NewClient(config.SleeperAPI{BaseURL: srv.URL}), &fakeCache{})

	_, err := api.GetLeague(context.Background(), "123")
	assert.ErrorContains(t, err, "unexpected status code: 500")
}
