package handler

import (
	"go2office/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// monthArg parses an optional YYYY-MM argument, defaulting to the current month.
func (h *Handler) monthArg(message *tgbotapi.Message, args string) (models.YearMonth, bool) {
	if args == "" {
		return models.YearMonthOf(h.today()), true
	}
	ym, err := models.ParseYearMonth(args)
	if err != nil {
		h.reply(message, "❌ Month must look like 2026-05.")
		return models.YearMonth{}, false
	}
	return ym, true
}

func (h *Handler) showRequirements(message *tgbotapi.Message, args string) {
	ym, ok := h.monthArg(message, args)
	if !ok {
		return
	}
	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	req, err := h.progressService.Requirements(user.ID, ym)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, h.progressService.FormatRequirements(req))
}

func (h *Handler) showProgress(message *tgbotapi.Message, args string) {
	ym, ok := h.monthArg(message, args)
	if !ok {
		return
	}
	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	report, err := h.progressService.Progress(user.ID, ym)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, h.progressService.FormatProgress(report.Progress))
}

func (h *Handler) showSuggestions(message *tgbotapi.Message, args string) {
	ym, ok := h.monthArg(message, args)
	if !ok {
		return
	}
	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	result, _, err := h.progressService.Suggestions(user.ID, ym, h.today())
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, h.progressService.FormatSuggestions(ym, result))
}

func (h *Handler) showHistory(message *tgbotapi.Message) {
	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	stats, err := h.progressService.History(user.ID, 12)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, h.progressService.FormatHistory(stats))
}
