package handler

import (
	"strconv"
	"strings"

	"go2office/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const settingsUsage = "📝 Usage: /settings <days> <hours> <Mon,Wed,Fri,Tue,Thu>\nExample: /settings 3 24 Mon,Wed,Fri,Tue,Thu"

func (h *Handler) configureSettings(message *tgbotapi.Message, args string) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		h.reply(message, settingsUsage)
		return
	}

	days, err := strconv.Atoi(fields[0])
	if err != nil {
		h.reply(message, "❌ Days per week must be a whole number.\n\n"+settingsUsage)
		return
	}
	hours, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		h.reply(message, "❌ Hours per week must be a number.\n\n"+settingsUsage)
		return
	}
	prefs, err := models.ParseWeekdays(strings.Join(fields[2:], ","))
	if err != nil {
		h.replyError(message, err)
		return
	}

	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	settings, err := h.settingsService.Configure(user.ID, days, hours, prefs)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, "✅ Settings saved.\n\n"+h.settingsService.FormatSettings(settings))
}

func (h *Handler) showSettings(message *tgbotapi.Message) {
	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	settings, err := h.settingsService.Get(user.ID)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, h.settingsService.FormatSettings(settings))
}
