package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/omarshaarawi/tradereferee/internal/service"
)

const helpText = `🧑‍⚖️ *TradeReferee*

*League*
/source <demo|sleeper|manual> - choose where the league comes from
/load [league id] - load the demo or a Sleeper league
Send a .json file to upload a league manually
/teams - list teams
/roster <team> - show a roster
/status - show the session

*Trade*
/add <player> [a|b] - add a player to the trade
/remove <player> - remove a player
/trade - show the trade
/clear - start over
/grade - grade the trade
/results - show the active view
/tab <build|results|pro> - switch view

*Pro*
/simulate - simulate the rest of the season
/counter - suggest counter-offers
/injuries - injury notes for the traded players
/upgrade - get Pro
/activate <email> - activate your subscription`

type Handler struct {
	tradeService *service.TradeService
}

func NewHandler(tradeService *service.TradeService) *Handler {
	return &Handler{tradeService: tradeService}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	chatID := update.Message.Chat.ID
	msg := tgbotapi.NewMessage(chatID, "")
	command := strings.ToLower(update.Message.Command())
	args := strings.TrimSpace(update.Message.CommandArguments())
	msg.ParseMode = tgbotapi.ModeMarkdown

	switch command {
	case "start":
		msg.Text = "Welcome to TradeReferee! Load the demo league with /load, then build a trade with /add. Use /help to see all commands."
	case "help":
		msg.Text = helpText
	case "status":
		msg.Text = h.tradeService.Status(chatID)
	case "source":
		h.reply(&msg, "Error selecting source", func() (string, error) {
			return h.tradeService.SelectSource(chatID, args)
		})
	case "load":
		h.reply(&msg, "Error loading league", func() (string, error) {
			return h.tradeService.LoadLeague(ctx, chatID, args)
		})
	case "teams":
		h.reply(&msg, "Error listing teams", func() (string, error) {
			return h.tradeService.Teams(chatID)
		})
	case "roster":
		h.handleRoster(&msg, args)
	case "add":
		h.handleAdd(&msg, args)
	case "remove":
		h.handleRemove(&msg, args)
	case "trade":
		msg.Text = h.tradeService.Trade(chatID)
	case "clear":
		msg.Text = h.tradeService.ClearTrade(chatID)
	case "grade":
		h.reply(&msg, "Error grading trade", func() (string, error) {
			return h.tradeService.AnalyzeTrade(ctx, chatID)
		})
	case "results":
		msg.Text = h.tradeService.Results(chatID)
	case "tab":
		h.reply(&msg, "Error switching view", func() (string, error) {
			return h.tradeService.ShowTab(chatID, args)
		})
	case "simulate":
		h.reply(&msg, "Error simulating league", func() (string, error) {
			return h.tradeService.Simulate(ctx, chatID)
		})
	case "counter":
		h.reply(&msg, "Error generating counter-offers", func() (string, error) {
			return h.tradeService.CounterOffers(ctx, chatID)
		})
	case "injuries":
		h.reply(&msg, "Error fetching injury notes", func() (string, error) {
			return h.tradeService.InjuryNotes(ctx, chatID)
		})
	case "upgrade":
		msg.Text = h.tradeService.Upgrade()
	case "activate":
		h.reply(&msg, "Error activating subscription", func() (string, error) {
			return h.tradeService.Activate(ctx, chatID, args)
		})
	default:
		msg.Text = "Unknown command. Use /help to see available commands."
	}

	return msg
}

// HandleDocument installs an uploaded league file.
func (h *Handler) HandleDocument(chatID int64, data []byte) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, "")
	msg.ParseMode = tgbotapi.ModeMarkdown
	h.reply(&msg, "Error uploading league", func() (string, error) {
		return h.tradeService.UploadLeague(chatID, data)
	})
	return msg
}

func (h *Handler) handleRoster(msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a team name. Usage: /roster <team name>"
		return
	}
	h.reply(msg, "Error getting team roster", func() (string, error) {
		return h.tradeService.Roster(msg.ChatID, args)
	})
}

func (h *Handler) handleAdd(msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a player name. Usage: /add <player name> [a|b]"
		return
	}
	player, side := splitSide(args)
	h.reply(msg, "Error adding player", func() (string, error) {
		return h.tradeService.AddPlayer(msg.ChatID, player, side)
	})
}

func (h *Handler) handleRemove(msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a player name. Usage: /remove <player name>"
		return
	}
	h.reply(msg, "Error removing player", func() (string, error) {
		return h.tradeService.RemovePlayer(msg.ChatID, args)
	})
}

// reply fills msg with the flow's output. Discarded results and rejections
// are shown as they are, anything else gets the operation's prefix.
func (h *Handler) reply(msg *tgbotapi.MessageConfig, prefix string, flow func() (string, error)) {
	text, err := flow()
	switch {
	case err == nil:
		msg.Text = text
	case service.IsStale(err):
		msg.Text = "🔄 " + tgbotapi.EscapeText(tgbotapi.ModeMarkdown, service.UserMessage(err))
	case service.IsValidation(err):
		msg.Text = "⚠️ " + tgbotapi.EscapeText(tgbotapi.ModeMarkdown, service.UserMessage(err))
	default:
		msg.Text = fmt.Sprintf("%s: %s", prefix, tgbotapi.EscapeText(tgbotapi.ModeMarkdown, service.UserMessage(err)))
	}
}

// splitSide separates a trailing "a" or "b" side marker from a player query.
func splitSide(args string) (string, string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return args, ""
	}
	last := strings.ToLower(fields[len(fields)-1])
	if last == "a" || last == "b" {
		return strings.Join(fields[:len(fields)-1], " "), last
	}
	return args, ""
}
