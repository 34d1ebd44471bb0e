package handler

import (
	"fmt"
	"strings"

	"go2office/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// requireAdmin replies and returns false when the sender is not an admin.
func (h *Handler) requireAdmin(message *tgbotapi.Message) bool {
	isAdmin, err := h.userService.IsAdmin(message.Chat.ID)
	if err != nil {
		h.replyError(message, err)
		return false
	}
	if !isAdmin {
		h.reply(message, "🔒 This command is only available to administrators.")
		return false
	}
	return true
}

func (h *Handler) addPublicHoliday(message *tgbotapi.Message, args string) {
	if !h.requireAdmin(message) {
		return
	}

	fields := strings.Fields(args)
	if len(fields) == 0 {
		h.reply(message, "📝 Usage: /addholiday YYYY-MM-DD [description]")
		return
	}
	date, err := models.ParseDate(fields[0])
	if err != nil {
		h.reply(message, "❌ "+err.Error())
		return
	}

	holiday, err := h.holidayService.AddPublicHoliday(date, strings.Join(fields[1:], " "))
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf("🎉 Public holiday added: %s %s", holiday.Day().Format(models.DateLayout), holiday.Description))
}

func (h *Handler) loadHolidays(message *tgbotapi.Message, args string) {
	if !h.requireAdmin(message) {
		return
	}

	path := args
	if path == "" && h.config != nil {
		path = h.config.HolidaysFile
	}
	if path == "" {
		h.reply(message, "📝 Usage: /loadholidays <path>, or set HOLIDAYS_FILE.")
		return
	}

	n, err := h.holidayService.LoadPublicCalendar(path)
	if err != nil {
		h.logger.WithError(err).WithField("file", path).Error("Failed to load holiday calendar")
		h.reply(message, "❌ Failed to load the holiday calendar: "+err.Error())
		return
	}

	h.reply(message, fmt.Sprintf("✅ Loaded %d public holidays from %s.", n, path))
}

func (h *Handler) showAllUsers(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}

	users, err := h.userService.GetAll()
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, h.userService.FormatAllUsers(users))
}
