package handler

import (
	"fmt"
	"strings"

	"go2office/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const vacationUsage = "📝 Usage: /vacation YYYY-MM-DD [YYYY-MM-DD] [description]\nExample: /vacation 2026-05-11 2026-05-15 summer trip"

func (h *Handler) addVacation(message *tgbotapi.Message, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		h.reply(message, vacationUsage)
		return
	}

	from, err := models.ParseDate(fields[0])
	if err != nil {
		h.reply(message, "❌ "+err.Error()+"\n\n"+vacationUsage)
		return
	}
	to, rest := from, fields[1:]
	if len(rest) > 0 {
		if end, err := models.ParseDate(rest[0]); err == nil {
			to, rest = end, rest[1:]
		}
	}

	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	n, err := h.holidayService.AddVacation(user.ID, from, to, strings.Join(rest, " "))
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf("🌴 Vacation saved: %s - %s (%d days).",
		from.Format(models.DateLayout), to.Format(models.DateLayout), n))
}

func (h *Handler) removeVacation(message *tgbotapi.Message, args string) {
	date, err := models.ParseDate(args)
	if err != nil {
		h.reply(message, "📝 Usage: /unvacation YYYY-MM-DD")
		return
	}

	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	if err := h.holidayService.RemoveVacation(user.ID, date); err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, "🗑 Vacation day removed: "+date.Format(models.DateLayout))
}

func (h *Handler) showHolidays(message *tgbotapi.Message, args string) {
	ym, ok := h.monthArg(message, args)
	if !ok {
		return
	}
	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	list, err := h.holidayService.ListMonth(user.ID, ym)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, h.holidayService.FormatHolidays(ym, list))
}
