package service

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/olekukonko/tablewriter"
	"github.com/omarshaarawi/tradereferee/internal/models"
	"github.com/omarshaarawi/tradereferee/internal/store"
	"github.com/omarshaarawi/tradereferee/internal/trade"
)

var sourceLabels = map[models.LeagueSource]string{
	models.SourceDemo:    "Demo Data",
	models.SourceSleeper: "Sleeper",
	models.SourceManual:  "Manual Upload",
}

func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func teamName(league *models.League, teamID string) string {
	if league != nil {
		for _, team := range league.Teams {
			if team.ID == teamID {
				return team.Name
			}
		}
	}
	return teamID
}

func signed(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)
	if v > 0 {
		return "+" + s
	}
	return s
}

// riskLabel turns "injury-risk" into "INJURY RISK".
func riskLabel(tag string) string {
	return strings.ToUpper(strings.Replace(tag, "-", " ", 1))
}

// table renders rows with tablewriter inside a fenced block so Telegram keeps
// the columns aligned.
func table(header []any, rows [][]any) string {
	var sb strings.Builder
	tw := tablewriter.NewWriter(&sb)
	tw.Header(header...)
	for _, row := range rows {
		if err := tw.Append(row...); err != nil {
			slog.Error("Error appending table row", "error", err)
		}
	}
	if err := tw.Render(); err != nil {
		slog.Error("Error rendering table", "error", err)
	}
	return "```\n" + sb.String() + "```\n"
}

func renderLeagueLoaded(league *models.League) string {
	players := 0
	for _, team := range league.Teams {
		players += len(team.Roster)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ *%s* loaded\n", md(league.Name)))
	sb.WriteString(fmt.Sprintf("%d teams, %d players\n", len(league.Teams), players))
	if league.Settings.CurrentWeek > 0 {
		sb.WriteString(fmt.Sprintf("Week %d of %d\n", league.Settings.CurrentWeek, league.Settings.RegularSeasonWeeks))
	}
	sb.WriteString("\nUse /teams to browse rosters and /add <player> to build a trade.")
	return sb.String()
}

func renderStatus(s store.State) string {
	var sb strings.Builder
	sb.WriteString("⚙️ *Session*\n\n")
	sb.WriteString(fmt.Sprintf("Source: %s\n", sourceLabels[s.LeagueSource]))
	if s.League != nil {
		sb.WriteString(fmt.Sprintf("League: %s (%d teams)\n", md(s.League.Name), len(s.League.Teams)))
	} else {
		sb.WriteString("League: none loaded\n")
	}

	tier := "Free"
	if s.IsPro() {
		tier = "👑 Pro"
	}
	sb.WriteString(fmt.Sprintf("Tier: %s\n", tier))
	sb.WriteString(fmt.Sprintf("Trade: %d ⇄ %d players\n", len(s.Trade.TeamAOut), len(s.Trade.TeamBOut)))
	sb.WriteString(fmt.Sprintf("View: %s\n", s.ActiveTab))

	if s.Loading {
		sb.WriteString("\n⏳ A request is in progress\n")
	}
	if s.Error != "" {
		sb.WriteString(fmt.Sprintf("\n⚠️ %s\n", md(s.Error)))
	}
	return sb.String()
}

func renderTeams(league *models.League) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏈 *%s*\n\n", md(league.Name)))
	for i, team := range league.Teams {
		sb.WriteString(fmt.Sprintf("%d. *%s* (%s)\n", i+1, md(team.Name), md(team.Owner)))
		sb.WriteString(fmt.Sprintf("   %d players, %.1f projected\n", len(team.Roster), rosterPoints(team.Roster)))
	}
	sb.WriteString("\nUse /roster <team> to see a roster.")
	return sb.String()
}

func rosterPoints(roster []models.Player) float64 {
	var total float64
	for _, p := range roster {
		total += p.ProjectedPoints
	}
	return total
}

func renderRoster(team models.Team, t models.Trade) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 *%s's Roster*\n\n", md(team.Name)))
	if len(team.Roster) == 0 {
		sb.WriteString("No players on this roster.")
		return sb.String()
	}

	for _, p := range team.Roster {
		sb.WriteString(fmt.Sprintf("▫️ %s %s", p.Position, md(p.Name)))
		if p.IsInjured {
			sb.WriteString(" 🚑")
		}
		if p.ProjectedPoints > 0 {
			sb.WriteString(fmt.Sprintf(" - %.1f pts", p.ProjectedPoints))
		}
		if trade.IsPlayerInTrade(t, p.ID) {
			sb.WriteString(" ✅")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderTrade(s store.State) string {
	var sb strings.Builder
	sb.WriteString("🔁 *Trade Builder*\n\n")
	if s.League == nil {
		sb.WriteString("No league loaded.")
		return sb.String()
	}

	writeSide := func(label string, ids []string) {
		sb.WriteString(fmt.Sprintf("*%s*\n", label))
		if len(ids) == 0 {
			sb.WriteString("  (empty)\n\n")
			return
		}
		for _, id := range ids {
			p, ok := trade.ResolvePlayer(s.League, id)
			if !ok {
				sb.WriteString(fmt.Sprintf("  • %s (no longer in league)\n", md(id)))
				continue
			}
			sb.WriteString(fmt.Sprintf("  • %s %s (%s)", p.Position, md(p.Name), md(p.TeamName)))
			if p.IsInjured {
				sb.WriteString(" 🚑")
			}
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("  Projected: %.1f pts\n\n", trade.ProjectedTotal(s.League, ids)))
	}

	writeSide("Team A gives", s.Trade.TeamAOut)
	writeSide("Team B gives", s.Trade.TeamBOut)

	if len(s.Trade.TeamAOut) > 0 && len(s.Trade.TeamBOut) > 0 {
		sb.WriteString("Ready! Use /grade to analyze the trade.")
	} else {
		sb.WriteString("Add players to both sides with /add <player>.")
	}
	return sb.String()
}

func renderGrade(league *models.League, g *models.TradeGrade) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧑‍⚖️ *Trade Grade: %s* (%.0f/100)\n\n", md(g.Letter), g.Score))

	if g.Fairness.IsFair() {
		sb.WriteString("⚖️ Balance: *Fair*\n")
	} else {
		sb.WriteString("⚖️ Balance: *Unbalanced*\n")
		sb.WriteString(fmt.Sprintf("This trade favors %s by %.1f%%\n",
			md(teamName(league, g.Fairness.TowardsTeamID)), g.Fairness.DeltaPercent))
	}
	if g.Fairness.Explanation != "" {
		sb.WriteString(md(g.Fairness.Explanation) + "\n")
	}

	if len(g.TeamImpacts) > 0 {
		sb.WriteString("\n*Team Impact*\n")
		rows := make([][]any, 0, len(g.TeamImpacts))
		for _, impact := range g.TeamImpacts {
			rows = append(rows, []any{
				teamName(league, impact.TeamID),
				signed(impact.DeltaValue, 1),
				signed(impact.DeltaPercent*100, 1) + "%",
			})
		}
		sb.WriteString(table([]any{"Team", "Value", "Change"}, rows))
	}

	if len(g.Rationale) > 0 {
		sb.WriteString("\n*Why*\n")
		for _, item := range g.Rationale {
			sb.WriteString(fmt.Sprintf("• *%s* (%.0f%%): %s\n", md(item.Factor), item.Impact*100, md(item.Text)))
		}
	}

	if len(g.RiskTags) > 0 {
		labels := make([]string, len(g.RiskTags))
		for i, tag := range g.RiskTags {
			labels[i] = riskLabel(tag)
		}
		sb.WriteString(fmt.Sprintf("\n⚠️ *Risk Factors:* %s\n", md(strings.Join(labels, ", "))))
	}
	return sb.String()
}

func renderSimulation(league *models.League, r *models.SimulationResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎲 *League Simulation* (%d runs)\n\n", r.Iterations))

	teamIDs := make([]string, 0, len(r.DeltasByTeam))
	for id := range r.DeltasByTeam {
		teamIDs = append(teamIDs, id)
	}
	slices.Sort(teamIDs)

	if len(teamIDs) > 0 {
		rows := make([][]any, 0, len(teamIDs))
		for _, id := range teamIDs {
			d := r.DeltasByTeam[id]
			rows = append(rows, []any{
				teamName(league, id),
				signed(d.PlayoffDelta*100, 1) + "%",
				signed(d.TitleDelta*100, 1) + "%",
			})
		}
		sb.WriteString(table([]any{"Team", "Playoffs", "Title"}, rows))
	}

	for _, note := range r.Notes {
		sb.WriteString(fmt.Sprintf("• %s\n", md(note)))
	}
	return sb.String()
}

func renderCounterOffers(league *models.League, set *models.CounterOfferSet) string {
	var sb strings.Builder
	sb.WriteString("💡 *Counter-Offers*\n\n")
	if len(set.Suggestions) == 0 {
		sb.WriteString("No more balanced alternatives were found.")
		return sb.String()
	}

	names := func(ids []string) string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if p, ok := trade.ResolvePlayer(league, id); ok {
				out = append(out, p.Name)
			} else {
				out = append(out, id)
			}
		}
		return md(strings.Join(out, ", "))
	}

	for i, offer := range set.Suggestions {
		sb.WriteString(fmt.Sprintf("%d. *%s* (%.0f/100)", i+1, md(offer.Grade.Letter), offer.Grade.Score))
		if offer.Fairness.IsFair() {
			sb.WriteString(" Fair\n")
		} else {
			sb.WriteString(fmt.Sprintf(" favors %s by %.1f%%\n",
				md(teamName(league, offer.Fairness.TowardsTeamID)), offer.Fairness.DeltaPercent))
		}
		if offer.Trade != nil {
			sb.WriteString(fmt.Sprintf("   A gives: %s\n", names(offer.Trade.TeamAOut)))
			sb.WriteString(fmt.Sprintf("   B gives: %s\n", names(offer.Trade.TeamBOut)))
		}
		for _, note := range offer.Notes {
			sb.WriteString(fmt.Sprintf("   • %s\n", md(note)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderInjuryNotes(league *models.League, notes *models.InjuryNotes) string {
	var sb strings.Builder
	sb.WriteString("🚑 *Injury Notes*\n\n")
	if len(notes.Notes) == 0 {
		sb.WriteString("No injury news for the players in this trade.")
		return sb.String()
	}

	for _, n := range notes.Notes {
		name := n.PlayerID
		if p, ok := trade.ResolvePlayer(league, n.PlayerID); ok {
			name = p.Name
		}
		sb.WriteString(fmt.Sprintf("• *%s* - %s\n", md(name), md(n.Status)))
		if n.Note != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", md(n.Note)))
		}
		if !n.UpdatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("  _updated %s_\n", n.UpdatedAt.Format("Jan 2 15:04")))
		}
	}
	return sb.String()
}

// renderTab renders whichever view the session has active.
func renderTab(s store.State) string {
	switch s.ActiveTab {
	case store.TabResults:
		if s.TradeGrade == nil {
			return "No results yet. Build a trade and use /grade."
		}
		return renderGrade(s.League, s.TradeGrade)
	case store.TabPro:
		if !s.IsPro() {
			return trade.ErrProRequired.Message
		}
		var parts []string
		if s.SimulationResult != nil {
			parts = append(parts, renderSimulation(s.League, s.SimulationResult))
		}
		if s.CounterOffers != nil {
			parts = append(parts, renderCounterOffers(s.League, s.CounterOffers))
		}
		if len(parts) == 0 {
			return "No pro analysis yet. Grade a trade, then use /simulate or /counter."
		}
		return strings.Join(parts, "\n")
	}
	return renderTrade(s)
}
