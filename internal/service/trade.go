package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/omarshaarawi/tradereferee/internal/api/fantasy"
	"github.com/omarshaarawi/tradereferee/internal/api/referee"
	"github.com/omarshaarawi/tradereferee/internal/models"
	"github.com/omarshaarawi/tradereferee/internal/repository/memory"
	"github.com/omarshaarawi/tradereferee/internal/store"
	"github.com/omarshaarawi/tradereferee/internal/trade"
)

const (
	simulationIterations = 1000
	maxCounterOffers     = 3
)

// TokenStore persists the bearer token of a chat across restarts.
type TokenStore interface {
	Token(ctx context.Context, chatID int64) (string, error)
	SaveToken(ctx context.Context, chatID int64, token string) error
}

type TradeService struct {
	api         *fantasy.API
	repo        *memory.Repository
	tokens      TokenStore
	paymentLink string
}

func NewTradeService(api *fantasy.API, repo *memory.Repository, tokens TokenStore, paymentLink string) *TradeService {
	return &TradeService{api: api, repo: repo, tokens: tokens, paymentLink: paymentLink}
}

// State returns the current state of the chat's session.
func (s *TradeService) State(chatID int64) store.State {
	return s.session(chatID).Store.State()
}

func (s *TradeService) session(chatID int64) *memory.Session {
	return s.repo.GetOrCreateSession(chatID, func() *store.Store {
		token, err := s.tokens.Token(context.Background(), chatID)
		if err != nil {
			slog.Error("Error loading saved token", "chat_id", chatID, "error", err)
		}
		st := store.New(store.Initial(token))
		st.Subscribe(func(a store.Action, next store.State) {
			slog.Debug("State transition", "chat_id", chatID, "action", a.Name(),
				"loading", next.Loading, "error", next.Error)
		})
		slog.Info("Session started", "chat_id", chatID, "has_token", token != "")
		return st
	})
}

func (s *TradeService) SelectSource(chatID int64, arg string) (string, error) {
	source := models.LeagueSource(strings.ToLower(strings.TrimSpace(arg)))
	if !source.Valid() {
		return "", &trade.ValidationError{Message: "Choose a data source: /source demo, /source sleeper or /source manual"}
	}

	st := s.session(chatID).Store
	st.Dispatch(store.SetLeagueSource{Source: source})
	st.Dispatch(store.SetError{})

	switch source {
	case models.SourceSleeper:
		return "📡 Source set to *Sleeper*. Import your league with /load <league id>.", nil
	case models.SourceManual:
		return "📄 Source set to *Manual Upload*. Send a JSON file with your league data.", nil
	default:
		return "⚡ Source set to *Demo Data*. Use /load to load the demo league.", nil
	}
}

// LoadLeague loads the league for the current source. Manual leagues arrive
// as uploads instead, see UploadLeague.
func (s *TradeService) LoadLeague(ctx context.Context, chatID int64, arg string) (string, error) {
	st := s.session(chatID).Store
	before := st.State()
	if before.Loading {
		return "", trade.ErrRequestActive
	}

	var load func(context.Context) (*models.League, error)
	switch before.LeagueSource {
	case models.SourceDemo:
		load = s.api.LoadDemoLeague
	case models.SourceSleeper:
		leagueID := strings.TrimSpace(arg)
		if leagueID == "" {
			return "", &trade.ValidationError{Message: "Please enter a Sleeper League ID: /load <league id>"}
		}
		load = func(ctx context.Context) (*models.League, error) {
			return s.api.LoadSleeperLeague(ctx, leagueID)
		}
	case models.SourceManual:
		return "", &trade.ValidationError{Message: "Upload a JSON file containing your league data"}
	default:
		return "", &trade.ValidationError{Message: "Choose a data source first with /source"}
	}

	st.Dispatch(store.SetError{})
	st.Dispatch(store.SetLoading{Loading: true})

	league, err := load(ctx)
	if err != nil {
		err = fmt.Errorf("Failed to load %s league: %s", before.LeagueSource, UserMessage(err))
		st.Dispatch(store.SetError{Message: err.Error()})
		return "", err
	}

	if st.State().LeagueSource != before.LeagueSource {
		st.Dispatch(store.SetLoading{Loading: false})
		return "", &trade.ValidationError{Message: "The data source changed while the league was loading, nothing was loaded."}
	}

	s.installLeague(st, league, false)
	st.Dispatch(store.SetLoading{Loading: false})
	slog.Info("League loaded", "chat_id", chatID, "source", before.LeagueSource, "league", league.ID)

	return renderLeagueLoaded(league), nil
}

// UploadLeague installs an uploaded league file. A bad file leaves the
// current league in place.
func (s *TradeService) UploadLeague(chatID int64, data []byte) (string, error) {
	st := s.session(chatID).Store
	if st.State().LeagueSource != models.SourceManual {
		return "", &trade.ValidationError{Message: "Switch to manual upload with /source manual before sending a league file."}
	}

	league, err := fantasy.ParseManualLeague(data)
	if err != nil {
		st.Dispatch(store.SetError{Message: UserMessage(err)})
		return "", err
	}

	st.Dispatch(store.SetError{})
	s.installLeague(st, league, true)
	return renderLeagueLoaded(league), nil
}

// installLeague replaces the league and clears the trade and its results
// unless the league is the same one reloaded. Uploads carry no reliable id,
// so an upload always counts as a different league.
func (s *TradeService) installLeague(st *store.Store, league *models.League, upload bool) {
	prev := st.State()
	st.Dispatch(store.SetLeague{League: league})
	same := !upload && prev.League != nil && prev.League.ID == league.ID
	if !same && (!prev.Trade.IsEmpty() || prev.HasResults()) {
		st.Dispatch(store.ClearTrade{})
	}
}

func (s *TradeService) AddPlayer(chatID int64, query, sideArg string) (string, error) {
	st := s.session(chatID).Store
	state := st.State()
	if state.League == nil {
		return "", trade.ErrNoLeague
	}

	p, ok := trade.FindPlayer(state.League, query)
	if !ok {
		return "", &trade.ValidationError{Message: fmt.Sprintf("🔍 No player found matching '%s'.", query)}
	}

	side, err := parseSide(sideArg)
	if err != nil {
		return "", err
	}
	if side == "" {
		side, _ = trade.SideForPlayer(state.League, p.ID)
	}

	if err := trade.CheckAdd(state.League, state.Trade, p.ID, side); err != nil {
		return "", err
	}

	st.Dispatch(store.AddPlayerToTrade{PlayerID: p.ID, Side: side})
	return renderTrade(st.State()), nil
}

func (s *TradeService) RemovePlayer(chatID int64, query string) (string, error) {
	st := s.session(chatID).Store
	state := st.State()

	playerID := strings.TrimSpace(query)
	if !trade.IsPlayerInTrade(state.Trade, playerID) {
		p, ok := trade.FindPlayer(state.League, query)
		if !ok || !trade.IsPlayerInTrade(state.Trade, p.ID) {
			return "", &trade.ValidationError{Message: fmt.Sprintf("'%s' is not part of the trade.", query)}
		}
		playerID = p.ID
	}

	side, _ := trade.CommittedSide(state.Trade, playerID)
	if err := trade.CheckRemove(state.Trade, playerID, side); err != nil {
		return "", err
	}

	st.Dispatch(store.RemovePlayerFromTrade{PlayerID: playerID, Side: side})
	return renderTrade(st.State()), nil
}

func (s *TradeService) ClearTrade(chatID int64) string {
	st := s.session(chatID).Store
	st.Dispatch(store.ClearTrade{})
	return renderTrade(st.State())
}

// AnalyzeTrade sends the current trade for grading and stores the grade.
func (s *TradeService) AnalyzeTrade(ctx context.Context, chatID int64) (string, error) {
	st := s.session(chatID).Store
	before := st.State()
	if before.Loading {
		return "", trade.ErrRequestActive
	}
	if err := trade.CheckComplete(before.League, before.Trade); err != nil {
		return "", err
	}
	ref, err := referee.RefFor(before.LeagueSource, before.League)
	if err != nil {
		return "", &trade.ValidationError{Message: err.Error()}
	}

	st.Dispatch(store.SetError{})
	st.Dispatch(store.SetLoading{Loading: true})

	grade, err := s.api.Referee(before.User.Token).GradeTrade(ctx, ref, before.Trade)
	if err != nil {
		st.Dispatch(store.SetError{Message: UserMessage(err)})
		return "", err
	}
	if err := discardIfStale(st, before); err != nil {
		return "", err
	}

	st.Dispatch(store.SetTradeGrade{Grade: grade})
	st.Dispatch(store.SetLoading{Loading: false})
	st.Dispatch(store.SetActiveTab{Tab: store.TabResults})

	return renderGrade(before.League, grade), nil
}

// Simulate runs the league simulation for the graded trade. Pro only.
func (s *TradeService) Simulate(ctx context.Context, chatID int64) (string, error) {
	st := s.session(chatID).Store
	before := st.State()
	ref, err := checkProRequest(before)
	if err != nil {
		return "", err
	}

	st.Dispatch(store.SetError{})
	st.Dispatch(store.SetLoading{Loading: true})

	result, err := s.api.Referee(before.User.Token).SimulateLeague(ctx, ref, before.Trade,
		before.League.Settings.WeeksRemaining(), simulationIterations)
	if err != nil {
		st.Dispatch(store.SetError{Message: UserMessage(err)})
		return "", err
	}
	if err := discardIfStale(st, before); err != nil {
		return "", err
	}

	st.Dispatch(store.SetSimulationResult{Result: result})
	st.Dispatch(store.SetLoading{Loading: false})
	st.Dispatch(store.SetActiveTab{Tab: store.TabPro})

	return renderSimulation(before.League, result), nil
}

// CounterOffers asks for more balanced alternatives to the graded trade. Pro only.
func (s *TradeService) CounterOffers(ctx context.Context, chatID int64) (string, error) {
	st := s.session(chatID).Store
	before := st.State()
	ref, err := checkProRequest(before)
	if err != nil {
		return "", err
	}

	st.Dispatch(store.SetError{})
	st.Dispatch(store.SetLoading{Loading: true})

	offers, err := s.api.Referee(before.User.Token).SuggestCounterOffers(ctx, ref, before.Trade, maxCounterOffers)
	if err != nil {
		st.Dispatch(store.SetError{Message: UserMessage(err)})
		return "", err
	}
	if err := discardIfStale(st, before); err != nil {
		return "", err
	}

	st.Dispatch(store.SetCounterOffers{Offers: offers})
	st.Dispatch(store.SetLoading{Loading: false})
	st.Dispatch(store.SetActiveTab{Tab: store.TabPro})

	return renderCounterOffers(before.League, offers), nil
}

// InjuryNotes fetches injury notes for every player in the trade. Pro only.
func (s *TradeService) InjuryNotes(ctx context.Context, chatID int64) (string, error) {
	st := s.session(chatID).Store
	before := st.State()
	if !before.IsPro() {
		return "", trade.ErrProRequired
	}
	if before.Loading {
		return "", trade.ErrRequestActive
	}
	if before.Trade.IsEmpty() {
		return "", &trade.ValidationError{Message: "Add players to the trade first"}
	}

	st.Dispatch(store.SetError{})
	st.Dispatch(store.SetLoading{Loading: true})

	notes, err := s.api.Referee(before.User.Token).GetInjuryNotes(ctx, before.Trade.PlayerIDs())
	if err != nil {
		st.Dispatch(store.SetError{Message: UserMessage(err)})
		return "", err
	}
	st.Dispatch(store.SetLoading{Loading: false})

	return renderInjuryNotes(before.League, notes), nil
}

// InjuryReport is a scheduled injury update for one chat.
type InjuryReport struct {
	ChatID int64
	Text   string
}

// InjuryReports builds injury updates for every pro session with a trade in
// progress. It only reads session state.
func (s *TradeService) InjuryReports(ctx context.Context) []InjuryReport {
	var reports []InjuryReport
	for _, sess := range s.repo.Sessions() {
		state := sess.Store.State()
		if !state.IsPro() || state.User.Token == "" || state.Trade.IsEmpty() {
			continue
		}

		notes, err := s.api.Referee(state.User.Token).GetInjuryNotes(ctx, state.Trade.PlayerIDs())
		if err != nil {
			slog.Error("Failed to get injury notes", "chat_id", sess.ChatID, "error", err)
			continue
		}
		if len(notes.Notes) == 0 {
			continue
		}
		reports = append(reports, InjuryReport{ChatID: sess.ChatID, Text: renderInjuryNotes(state.League, notes)})
	}
	return reports
}

// SweepSessions drops sessions idle for longer than ttl. Persisted tokens
// survive; everything else starts over on the next message.
func (s *TradeService) SweepSessions(ttl time.Duration) int {
	return s.repo.EvictIdle(ttl)
}

// Activate unlocks pro features for the subscription registered to email.
func (s *TradeService) Activate(ctx context.Context, chatID int64, email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", &trade.ValidationError{Message: "Please provide the email used for the subscription: /activate <email>"}
	}

	st := s.session(chatID).Store
	if st.State().Loading {
		return "", trade.ErrRequestActive
	}
	st.Dispatch(store.SetError{})
	st.Dispatch(store.SetLoading{Loading: true})

	activation, err := s.api.Referee("").Activate(ctx, addr.Address)
	if err != nil {
		st.Dispatch(store.SetError{Message: UserMessage(err)})
		return "", err
	}

	tier := activation.Tier
	if tier == "" {
		tier = models.TierPro
	}
	patch := store.UserPatch{Tier: &tier}
	if activation.Token != "" {
		token := activation.Token
		patch.Token = &token
		if err := s.tokens.SaveToken(ctx, chatID, token); err != nil {
			slog.Error("Error saving token", "chat_id", chatID, "error", err)
		}
	}
	st.Dispatch(store.SetUser{Patch: patch})
	st.Dispatch(store.SetLoading{Loading: false})
	slog.Info("Subscription activated", "chat_id", chatID, "tier", tier)

	if tier != models.TierPro {
		return fmt.Sprintf("Subscription found, current tier: *%s*.", tier), nil
	}
	return "👑 Pro features activated! Try /simulate, /counter and /injuries after grading a trade.", nil
}

func (s *TradeService) Upgrade() string {
	if s.paymentLink == "" {
		return "Stripe payment link not configured. This would open the subscription page."
	}
	return fmt.Sprintf("👑 Upgrade to Pro - $3.99/month\n%s\n\nAfter paying, run /activate <email>.", s.paymentLink)
}

func (s *TradeService) Status(chatID int64) string {
	return renderStatus(s.State(chatID))
}

func (s *TradeService) Teams(chatID int64) (string, error) {
	state := s.State(chatID)
	if state.League == nil {
		return "", trade.ErrNoLeague
	}
	return renderTeams(state.League), nil
}

func (s *TradeService) Roster(chatID int64, query string) (string, error) {
	state := s.State(chatID)
	if state.League == nil {
		return "", trade.ErrNoLeague
	}
	team, ok := trade.FindTeam(state.League, query)
	if !ok {
		return "", &trade.ValidationError{Message: fmt.Sprintf("team not found: %s", query)}
	}
	return renderRoster(team, state.Trade), nil
}

func (s *TradeService) Trade(chatID int64) string {
	return renderTrade(s.State(chatID))
}

// ShowTab switches the session's active view and renders it.
func (s *TradeService) ShowTab(chatID int64, arg string) (string, error) {
	tab := store.Tab(strings.ToLower(strings.TrimSpace(arg)))
	if !tab.Valid() {
		return "", &trade.ValidationError{Message: "Choose a view: /tab build, /tab results or /tab pro"}
	}
	st := s.session(chatID).Store
	st.Dispatch(store.SetActiveTab{Tab: tab})
	return renderTab(st.State()), nil
}

// Results renders the active view.
func (s *TradeService) Results(chatID int64) string {
	return renderTab(s.State(chatID))
}

func checkProRequest(state store.State) (referee.LeagueRef, error) {
	if !state.IsPro() {
		return nil, trade.ErrProRequired
	}
	if state.Loading {
		return nil, trade.ErrRequestActive
	}
	if state.TradeGrade == nil || state.League == nil {
		return nil, trade.ErrNotAnalyzed
	}
	ref, err := referee.RefFor(state.LeagueSource, state.League)
	if err != nil {
		return nil, &trade.ValidationError{Message: err.Error()}
	}
	return ref, nil
}

var errStale = &trade.ValidationError{Message: "The trade changed while the request was running, the result was discarded. Run it again."}

// discardIfStale drops a response computed for a trade or source that is no
// longer current.
func discardIfStale(st *store.Store, before store.State) error {
	now := st.State()
	if now.LeagueSource == before.LeagueSource && now.Trade.Equal(before.Trade) {
		return nil
	}
	st.Dispatch(store.SetLoading{Loading: false})
	return errStale
}

func parseSide(arg string) (models.Side, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "":
		return "", nil
	case "a", "teama", "teamaout":
		return models.SideA, nil
	case "b", "teamb", "teambout":
		return models.SideB, nil
	}
	return "", &trade.ValidationError{Message: fmt.Sprintf("unknown side '%s', use a or b", arg)}
}

// IsStale reports whether err is a discarded response.
func IsStale(err error) bool {
	return errors.Is(err, errStale)
}
