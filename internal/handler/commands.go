package handler

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `🏢 Office attendance bot

Share your live location and the bot records when you are in the office.

⚙️ Settings:
/settings <days> <hours> <Mon,Wed,Fri,Tue,Thu> - set the weekly quota and weekday preferences
/mysettings - show your settings

📊 Attendance:
/status - current presence and today's hours
/requirements [YYYY-MM] - required days and hours
/progress [YYYY-MM] - progress towards the quota
/suggest [YYYY-MM] - suggested office days
/history - stored monthly results

✏️ Corrections:
/day YYYY-MM-DD <hours> [note] - set a day's hours manually
/recompute YYYY-MM-DD - drop a manual value and recompute from sessions

🏖 Holidays:
/vacation YYYY-MM-DD [YYYY-MM-DD] [description] - add vacation days
/unvacation YYYY-MM-DD - remove a vacation day
/holidays [YYYY-MM] - list holidays and vacation`

const adminHelpText = `

👑 Admin:
/addholiday YYYY-MM-DD [description] - add a public holiday
/loadholidays [path] - import the public holiday calendar
/users - list users`

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := strings.TrimSpace(message.CommandArguments())

	switch command {
	case "start":
		h.sendStartMessage(message)
	case "help":
		h.sendHelpMessage(message)

	case "settings":
		h.configureSettings(message, args)
	case "mysettings":
		h.showSettings(message)

	case "status":
		h.showStatus(ctx, message)
	case "requirements":
		h.showRequirements(message, args)
	case "progress":
		h.showProgress(message, args)
	case "suggest":
		h.showSuggestions(message, args)
	case "history":
		h.showHistory(message)

	case "day":
		h.setManualDay(ctx, message, args)
	case "recompute":
		h.recomputeDay(ctx, message, args)

	case "vacation":
		h.addVacation(message, args)
	case "unvacation":
		h.removeVacation(message, args)
	case "holidays":
		h.showHolidays(message, args)

	case "addholiday":
		h.addPublicHoliday(message, args)
	case "loadholidays":
		h.loadHolidays(message, args)
	case "users":
		h.showAllUsers(message)

	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendStartMessage(message *tgbotapi.Message) {
	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, "👋 Hello, "+user.DisplayName()+"!\n\n"+helpText)
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	text := helpText
	if isAdmin, err := h.userService.IsAdmin(message.Chat.ID); err == nil && isAdmin {
		text += adminHelpText
	}
	h.reply(message, text)
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.reply(message, "❌ Unknown command. Use /help for the list of commands.")
}
