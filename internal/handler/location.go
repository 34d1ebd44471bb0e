package handler

import (
	"context"
	"time"

	"go2office/internal/presence"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// locationFix converts a location message. Edits carry the time of the edit.
func locationFix(message *tgbotapi.Message, edited bool) presence.LocationFix {
	ts := int64(message.Date)
	if edited && message.EditDate != 0 {
		ts = int64(message.EditDate)
	}
	return presence.LocationFix{
		Time:           time.Unix(ts, 0).UTC(),
		Latitude:       message.Location.Latitude,
		Longitude:      message.Location.Longitude,
		AccuracyMeters: message.Location.HorizontalAccuracy,
	}
}

func (h *Handler) handleLocation(ctx context.Context, message *tgbotapi.Message, edited bool) {
	if message.Chat == nil {
		return
	}

	user, err := h.currentUser(message)
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", message.Chat.ID).Error("Failed to resolve user for location")
		return
	}

	fix := locationFix(message, edited)
	h.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"time":     fix.Time.Format(time.RFC3339),
		"accuracy": fix.AccuracyMeters,
		"edited":   edited,
	}).Debug("Location fix received")

	if err := h.presence.Submit(ctx, user.ID, fix); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to submit location fix")
		if !edited {
			h.replyError(message, err)
		}
		return
	}

	if edited {
		return
	}
	if message.Location.LivePeriod > 0 {
		h.reply(message, "📍 Live location received. Office presence is being tracked while you share it.")
		return
	}
	h.reply(message, "📍 Location received. Share your live location for continuous tracking.")
}
