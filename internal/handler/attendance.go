package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go2office/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) showStatus(ctx context.Context, message *tgbotapi.Message) {
	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	var lines []string
	status, tracked := h.presence.Status(user.ID)
	switch {
	case status.Active && status.OpenSession != nil:
		since := status.OpenSession.EntryTime.In(h.location()).Format("15:04")
		lines = append(lines, fmt.Sprintf("🟢 In the office since %s", since))
	case tracked:
		lines = append(lines, "⚪ Not in the office")
	default:
		lines = append(lines, "⚪ No location received since the bot started")
	}

	today := h.today()
	entry, err := h.attendanceService.RecomputeDay(ctx, user.ID, today, false)
	if err != nil {
		h.replyError(message, err)
		return
	}
	lines = append(lines, fmt.Sprintf("⏱ Recorded today (%s): %.2f h", today.Format(models.DateLayout), entry.HoursWorked))
	if entry.IsManual {
		lines = append(lines, "✏️ Today's value was set manually")
	}

	if tracked {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("📡 Fixes: %d accepted, %d inaccurate, %d out of order",
			status.Stats.Accepted, status.Stats.LowAccuracy, status.Stats.OutOfOrder))
		if status.LastError != "" {
			lines = append(lines, "⚠️ Last error: "+status.LastError)
		}
	}

	h.reply(message, strings.Join(lines, "\n"))
}

const dayUsage = "📝 Usage: /day YYYY-MM-DD <hours> [note]\nExample: /day 2026-05-04 6.5 client visit"

func (h *Handler) setManualDay(ctx context.Context, message *tgbotapi.Message, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		h.reply(message, dayUsage)
		return
	}

	date, err := models.ParseDate(fields[0])
	if err != nil {
		h.reply(message, "❌ "+err.Error()+"\n\n"+dayUsage)
		return
	}
	hours, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		h.reply(message, "❌ Hours must be a number.\n\n"+dayUsage)
		return
	}
	note := strings.Join(fields[2:], " ")

	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	entry, err := h.attendanceService.SetManualDay(ctx, user.ID, date, hours, note)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf("✅ %s set to %.2f h.\nAutomatic detection will not overwrite it; use /recompute %s to undo.",
		entry.Day().Format(models.DateLayout), entry.HoursWorked, entry.Day().Format(models.DateLayout)))
}

func (h *Handler) recomputeDay(ctx context.Context, message *tgbotapi.Message, args string) {
	date, err := models.ParseDate(args)
	if err != nil {
		h.reply(message, "📝 Usage: /recompute YYYY-MM-DD")
		return
	}

	user, err := h.currentUser(message)
	if err != nil {
		h.replyError(message, err)
		return
	}

	entry, err := h.attendanceService.RecomputeDay(ctx, user.ID, date, true)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf("🔄 %s recomputed from office sessions: %.2f h.", date.Format(models.DateLayout), entry.HoursWorked))
}
