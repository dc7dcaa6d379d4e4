package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/omarshaarawi/tradereferee/internal/api/fantasy"
	"github.com/omarshaarawi/tradereferee/internal/api/referee"
	"github.com/omarshaarawi/tradereferee/internal/api/sleeper"
	"github.com/omarshaarawi/tradereferee/internal/config"
	"github.com/omarshaarawi/tradereferee/internal/models"
	"github.com/omarshaarawi/tradereferee/internal/repository/memory"
	"github.com/omarshaarawi/tradereferee/internal/service"
	"github.com/omarshaarawi/tradereferee/internal/store"
	"github.com/omarshaarawi/tradereferee/internal/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID int64 = 100

type fakeTokens struct {
	mu     sync.Mutex
	tokens map[int64]string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[int64]string{}}
}

func (f *fakeTokens) Token(_ context.Context, chatID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[chatID], nil
}

func (f *fakeTokens) SaveToken(_ context.Context, chatID int64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[chatID] = token
	return nil
}

type harness struct {
	svc    *service.TradeService
	repo   *memory.Repository
	tokens *fakeTokens
	mux    *http.ServeMux
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	demo, err := os.ReadFile("../../testdata/fixtures/demo_league.json")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/data/demo/league.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(demo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	refereeClient := referee.NewClient(config.RefereeAPI{
		BaseURL:           srv.URL,
		RequestsPerSecond: 100,
		Timeout:           5 * time.Second,
	})
	repo := memory.NewRepository()
	sleeperAPI := sleeper.NewAPI(sleeper.NewClient(config.SleeperAPI{BaseURL: srv.URL}), repo)
	tokens := newFakeTokens()

	return &harness{
		svc:    service.NewTradeService(fantasy.NewAPI(refereeClient, sleeperAPI), repo, tokens, ""),
		repo:   repo,
		tokens: tokens,
		mux:    mux,
	}
}

func (h *harness) loadDemo(t *testing.T) {
	t.Helper()
	_, err := h.svc.LoadLeague(context.Background(), chatID, "")
	require.NoError(t, err)
}

func (h *harness) buildTrade(t *testing.T) {
	t.Helper()
	h.loadDemo(t)
	_, err := h.svc.AddPlayer(chatID, "Allen", "")
	require.NoError(t, err)
	_, err = h.svc.AddPlayer(chatID, "Kelce", "")
	require.NoError(t, err)
}

func (h *harness) makePro(t *testing.T) {
	t.Helper()
	sess, ok := h.repo.GetSession(chatID)
	require.True(t, ok)
	tier := models.TierPro
	token := "tok-pro"
	sess.Store.Dispatch(store.SetUser{Patch: store.UserPatch{Tier: &tier, Token: &token}})
}

func gradeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{"letter":"B","score":82,"fairness":{"deltaPercent":12.5,"towardsTeamId":"team2","explanation":"Team 2 gains more value"},
		"teamImpacts":[{"teamId":"team1","deltaValue":-4.2,"deltaPercent":-0.05},{"teamId":"team2","deltaValue":4.2,"deltaPercent":0.05}],
		"rationale":[{"factor":"Positional need","text":"Team 2 lacked a QB","impact":0.4}],
		"riskTags":["injury-risk"]}`))
}

func TestSession_LoadsPersistedToken(t *testing.T) {
	h := newHarness(t)
	h.tokens.tokens[chatID] = "saved"

	state := h.svc.State(chatID)
	assert.Equal(t, "saved", state.User.Token)
	assert.Equal(t, models.TierFree, state.User.Tier)
	assert.Equal(t, models.SourceDemo, state.LeagueSource)
}

func TestLoadLeague_Demo(t *testing.T) {
	h := newHarness(t)

	text, err := h.svc.LoadLeague(context.Background(), chatID, "")
	require.NoError(t, err)
	assert.Contains(t, text, "TradeReferee Demo League")

	state := h.svc.State(chatID)
	require.NotNil(t, state.League)
	assert.Len(t, state.League.Teams, 2)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
}

func TestLoadLeague_DemoUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	repo := memory.NewRepository()
	client := referee.NewClient(config.RefereeAPI{BaseURL: srv.URL, Timeout: time.Second})
	svc := service.NewTradeService(fantasy.NewAPI(client, nil), repo, newFakeTokens(), "")

	_, err := svc.LoadLeague(context.Background(), chatID, "")
	require.Error(t, err)

	state := svc.State(chatID)
	assert.Nil(t, state.League)
	assert.False(t, state.Loading)
	assert.Contains(t, state.Error, "Failed to load demo league")
}

func TestLoadLeague_SleeperNeedsID(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.SelectSource(chatID, "sleeper")
	require.NoError(t, err)

	_, err = h.svc.LoadLeague(context.Background(), chatID, " ")
	assert.True(t, service.IsValidation(err))
	assert.False(t, h.svc.State(chatID).Loading)
}

func TestSelectSource_ResetsLeagueAndTrade(t *testing.T) {
	h := newHarness(t)
	h.buildTrade(t)

	_, err := h.svc.SelectSource(chatID, "manual")
	require.NoError(t, err)

	state := h.svc.State(chatID)
	assert.Equal(t, models.SourceManual, state.LeagueSource)
	assert.Nil(t, state.League)
	assert.True(t, state.Trade.IsEmpty())

	_, err = h.svc.SelectSource(chatID, "espn")
	assert.True(t, service.IsValidation(err))
}

func TestUploadLeague(t *testing.T) {
	h := newHarness(t)
	data, err := os.ReadFile("../../testdata/fixtures/demo_league.json")
	require.NoError(t, err)

	_, err = h.svc.UploadLeague(chatID, data)
	assert.True(t, service.IsValidation(err), "upload needs the manual source")

	_, err = h.svc.SelectSource(chatID, "manual")
	require.NoError(t, err)

	_, err = h.svc.UploadLeague(chatID, []byte("{not json"))
	require.Error(t, err)
	var malformed *fantasy.MalformedInputError
	assert.True(t, errors.As(err, &malformed))
	assert.Nil(t, h.svc.State(chatID).League)
	assert.Contains(t, h.svc.State(chatID).Error, "Invalid JSON file format")

	_, err = h.svc.UploadLeague(chatID, data)
	require.NoError(t, err)
	state := h.svc.State(chatID)
	require.NotNil(t, state.League)
	assert.Equal(t, "demo_league_2024", state.League.ID)
	assert.Empty(t, state.Error)
}

func TestAddPlayer_AssignsSideByTeam(t *testing.T) {
	h := newHarness(t)
	h.buildTrade(t)

	state := h.svc.State(chatID)
	assert.Equal(t, []string{"p1"}, state.Trade.TeamAOut)
	assert.Equal(t, []string{"p6"}, state.Trade.TeamBOut)
}

func TestAddPlayer_Rejections(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.AddPlayer(chatID, "Allen", "")
	assert.Same(t, trade.ErrNoLeague, err)

	h.buildTrade(t)
	before := h.svc.State(chatID).Trade

	tests := []struct {
		name  string
		query string
		side  string
	}{
		{"unknown player", "Zzyzx Qwerty", ""},
		{"same side twice", "Allen", "a"},
		{"already on other side", "Allen", "b"},
		{"bad side", "Henry", "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.AddPlayer(chatID, tt.query, tt.side)
			assert.True(t, service.IsValidation(err))
			assert.True(t, h.svc.State(chatID).Trade.Equal(before))
		})
	}
}

func TestRemovePlayer(t *testing.T) {
	h := newHarness(t)
	h.buildTrade(t)

	_, err := h.svc.RemovePlayer(chatID, "p1")
	require.NoError(t, err)
	assert.Empty(t, h.svc.State(chatID).Trade.TeamAOut)

	_, err = h.svc.RemovePlayer(chatID, "Kelce")
	require.NoError(t, err)
	assert.True(t, h.svc.State(chatID).Trade.IsEmpty())

	_, err = h.svc.RemovePlayer(chatID, "Kelce")
	assert.True(t, service.IsValidation(err))
}

func TestAnalyzeTrade_RequiresBothSides(t *testing.T) {
	h := newHarness(t)
	h.loadDemo(t)
	_, err := h.svc.AddPlayer(chatID, "Allen", "")
	require.NoError(t, err)

	_, err = h.svc.AnalyzeTrade(context.Background(), chatID)
	assert.Same(t, trade.ErrIncomplete, err)
	assert.Nil(t, h.svc.State(chatID).TradeGrade)
}

func TestAnalyzeTrade_Success(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/api/grade-trade", gradeHandler)
	h.buildTrade(t)

	text, err := h.svc.AnalyzeTrade(context.Background(), chatID)
	require.NoError(t, err)

	state := h.svc.State(chatID)
	require.NotNil(t, state.TradeGrade)
	assert.Equal(t, "B", state.TradeGrade.Letter)
	assert.False(t, state.Loading)
	assert.Equal(t, store.TabResults, state.ActiveTab)

	assert.Contains(t, text, "Unbalanced")
	assert.Contains(t, text, "This trade favors Touchdown Titans by 12.5%")
	assert.Contains(t, text, "+5.0%")
	assert.Contains(t, text, "INJURY RISK")
}

func TestAnalyzeTrade_ServiceErrorLandsInState(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/api/grade-trade", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Invalid trade"}`))
	})
	h.buildTrade(t)

	_, err := h.svc.AnalyzeTrade(context.Background(), chatID)
	require.Error(t, err)
	assert.Equal(t, "Invalid trade", service.UserMessage(err))

	state := h.svc.State(chatID)
	assert.Equal(t, "Invalid trade", state.Error)
	assert.False(t, state.Loading)
	assert.Nil(t, state.TradeGrade)
}

func TestAnalyzeTrade_DiscardsStaleResponse(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/api/grade-trade", func(w http.ResponseWriter, r *http.Request) {
		h.svc.ClearTrade(chatID)
		gradeHandler(w, r)
	})
	h.buildTrade(t)

	_, err := h.svc.AnalyzeTrade(context.Background(), chatID)
	assert.True(t, service.IsStale(err))

	state := h.svc.State(chatID)
	assert.Nil(t, state.TradeGrade)
	assert.False(t, state.Loading)
}

func TestProFlows_RequireTierAndGrade(t *testing.T) {
	h := newHarness(t)
	h.buildTrade(t)
	ctx := context.Background()

	_, err := h.svc.Simulate(ctx, chatID)
	assert.Same(t, trade.ErrProRequired, err)
	_, err = h.svc.CounterOffers(ctx, chatID)
	assert.Same(t, trade.ErrProRequired, err)
	_, err = h.svc.InjuryNotes(ctx, chatID)
	assert.Same(t, trade.ErrProRequired, err)

	h.makePro(t)
	_, err = h.svc.Simulate(ctx, chatID)
	assert.Same(t, trade.ErrNotAnalyzed, err)
}

func TestSimulate(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/api/grade-trade", gradeHandler)
	h.mux.HandleFunc("/api/simulate-league", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-pro", r.Header.Get("Authorization"))
		w.Write([]byte(`{"iterations":1000,"deltasByTeam":{"team1":{"playoffDelta":-0.08,"titleDelta":-0.02},"team2":{"playoffDelta":0.11,"titleDelta":0.03}},"notes":["Team 2 clinches more often"]}`))
	})
	h.buildTrade(t)
	h.makePro(t)
	ctx := context.Background()

	_, err := h.svc.AnalyzeTrade(ctx, chatID)
	require.NoError(t, err)

	text, err := h.svc.Simulate(ctx, chatID)
	require.NoError(t, err)
	assert.Contains(t, text, "1000 runs")
	assert.Contains(t, text, "Gridiron Gurus")

	state := h.svc.State(chatID)
	require.NotNil(t, state.SimulationResult)
	require.NotNil(t, state.TradeGrade, "a new result keeps the others")
	assert.Equal(t, store.TabPro, state.ActiveTab)
}

func TestCounterOffers(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/api/grade-trade", gradeHandler)
	h.mux.HandleFunc("/api/suggest-counteroffers", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"suggestions":[{"trade":{"teamAOut":["p1"],"teamBOut":["p5","p6"]},"grade":{"letter":"A","score":91},"fairness":{"deltaPercent":3,"towardsTeamId":"team1"}}]}`))
	})
	h.buildTrade(t)
	h.makePro(t)
	ctx := context.Background()

	_, err := h.svc.AnalyzeTrade(ctx, chatID)
	require.NoError(t, err)

	text, err := h.svc.CounterOffers(ctx, chatID)
	require.NoError(t, err)
	assert.Contains(t, text, "Derrick Henry, Travis Kelce")
	assert.Contains(t, text, "Fair")
	require.NotNil(t, h.svc.State(chatID).CounterOffers)
}

func TestActivate(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/api/activate", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fan@example.com", r.URL.Query().Get("email"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"token":"tok-new"}`))
	})

	_, err := h.svc.Activate(context.Background(), chatID, "not an email")
	assert.True(t, service.IsValidation(err))

	_, err = h.svc.Activate(context.Background(), chatID, "fan@example.com")
	require.NoError(t, err)

	state := h.svc.State(chatID)
	assert.True(t, state.IsPro())
	assert.Equal(t, "tok-new", state.User.Token)
	assert.Equal(t, "tok-new", h.tokens.tokens[chatID])
}

func TestLoadLeague_SameLeagueKeepsTrade(t *testing.T) {
	h := newHarness(t)
	h.buildTrade(t)

	h.loadDemo(t)
	assert.False(t, h.svc.State(chatID).Trade.IsEmpty())
}

func TestUploadLeague_NewUploadClearsTradeAndGrade(t *testing.T) {
	first := []byte(`{"name":"First","teams":[
		{"id":"team1","name":"One","roster":[{"id":"p1","name":"Alpha Player","position":"QB"}]},
		{"id":"team2","name":"Two","roster":[{"id":"p2","name":"Beta Player","position":"RB"}]}]}`)
	second := []byte(`{"name":"Second","teams":[
		{"id":"team1","name":"Uno","roster":[{"id":"q1","name":"Gamma Player","position":"WR"}]},
		{"id":"team2","name":"Dos","roster":[{"id":"q2","name":"Delta Player","position":"TE"}]}]}`)

	tests := []struct {
		name   string
		reload []byte
	}{
		{"different league without id", second},
		{"same file uploaded again", first},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.mux.HandleFunc("/api/grade-trade", gradeHandler)
			ctx := context.Background()

			_, err := h.svc.SelectSource(chatID, "manual")
			require.NoError(t, err)
			_, err = h.svc.UploadLeague(chatID, first)
			require.NoError(t, err)
			_, err = h.svc.AddPlayer(chatID, "p1", "a")
			require.NoError(t, err)
			_, err = h.svc.AddPlayer(chatID, "p2", "b")
			require.NoError(t, err)
			_, err = h.svc.AnalyzeTrade(ctx, chatID)
			require.NoError(t, err)
			require.NotNil(t, h.svc.State(chatID).TradeGrade)

			_, err = h.svc.UploadLeague(chatID, tt.reload)
			require.NoError(t, err)

			state := h.svc.State(chatID)
			assert.True(t, state.Trade.IsEmpty())
			assert.Nil(t, state.TradeGrade)
			assert.Contains(t, h.svc.Results(chatID), "No results yet")
		})
	}
}

func TestInjuryReports_OnlyProSessionsWithTrades(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("/api/injury-notes", func(w http.ResponseWriter, r *http.Request) {
		assert.ElementsMatch(t, []string{"p1", "p6"}, r.URL.Query()["playerIds"])
		w.Write([]byte(`{"notes":[{"playerId":"p1","status":"Questionable","note":"Limited in practice"}]}`))
	})
	h.buildTrade(t)

	assert.Empty(t, h.svc.InjuryReports(context.Background()))

	h.makePro(t)
	reports := h.svc.InjuryReports(context.Background())
	require.Len(t, reports, 1)
	assert.Equal(t, chatID, reports[0].ChatID)
	assert.Contains(t, reports[0].Text, "Josh Allen")
	assert.Contains(t, reports[0].Text, "Limited in practice")
}

func TestShowTab(t *testing.T) {
	h := newHarness(t)

	text, err := h.svc.ShowTab(chatID, "results")
	require.NoError(t, err)
	assert.Contains(t, text, "No results yet")
	assert.Equal(t, store.TabResults, h.svc.State(chatID).ActiveTab)

	text, err = h.svc.ShowTab(chatID, "pro")
	require.NoError(t, err)
	assert.Equal(t, trade.ErrProRequired.Message, text)

	_, err = h.svc.ShowTab(chatID, "settings")
	assert.True(t, service.IsValidation(err))
}

func TestUpgrade(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.svc.Upgrade(), "not configured")
}
