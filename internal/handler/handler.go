package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go2office/internal/config"
	"go2office/internal/logging"
	"go2office/internal/models"
	"go2office/internal/presence"
	"go2office/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender delivers text to a chat. *telegram.Client implements it.
type Sender interface {
	Send(chatID int64, text string) error
}

// PresenceTracker accepts location fixes. *presence.Manager implements it.
type PresenceTracker interface {
	Submit(ctx context.Context, userID uint, fix presence.LocationFix) error
	Status(userID uint) (presence.Status, bool)
}

type Handler struct {
	sender            Sender
	userService       *service.UserService
	settingsService   *service.SettingsService
	attendanceService *service.AttendanceService
	progressService   *service.ProgressService
	holidayService    *service.HolidayService
	presence          PresenceTracker
	config            *config.BotConfig
	clock             func() time.Time
	logger            *logrus.Logger
}

func NewHandler(
	sender Sender,
	userService *service.UserService,
	settingsService *service.SettingsService,
	attendanceService *service.AttendanceService,
	progressService *service.ProgressService,
	holidayService *service.HolidayService,
	presenceTracker PresenceTracker,
	cfg *config.BotConfig,
) *Handler {
	return &Handler{
		sender:            sender,
		userService:       userService,
		settingsService:   settingsService,
		attendanceService: attendanceService,
		progressService:   progressService,
		holidayService:    holidayService,
		presence:          presenceTracker,
		config:            cfg,
		clock:             time.Now,
		logger:            logging.New(),
	}
}

// HandleUpdates consumes updates until the channel closes or ctx is done.
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	case update.EditedMessage != nil && update.EditedMessage.Location != nil:
		// live location updates arrive as edits of the original message
		h.handleLocation(ctx, update.EditedMessage, true)
	}
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	if message.Location != nil {
		h.handleLocation(ctx, message, false)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"text":    message.Text,
	}).Info("Message received")

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	h.reply(message, "🤖 Share your live location to track office presence, or use /help for the list of commands.")
}

// currentUser returns the sender's account, registering it on first contact.
func (h *Handler) currentUser(message *tgbotapi.Message) (*models.User, error) {
	var username, firstName, lastName string
	if message.From != nil {
		username, firstName, lastName = message.From.UserName, message.From.FirstName, message.From.LastName
	}
	user, created, err := h.userService.Register(message.Chat.ID, username, firstName, lastName)
	if err != nil {
		return nil, err
	}
	if created {
		h.logger.WithField("chat_id", message.Chat.ID).Info("New user registered")
	}
	return user, nil
}

func (h *Handler) reply(message *tgbotapi.Message, text string) {
	h.send(message.Chat.ID, text)
}

func (h *Handler) send(chatID int64, text string) {
	if err := h.sender.Send(chatID, text); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

func (h *Handler) replyError(message *tgbotapi.Message, err error) {
	h.logger.WithError(err).WithField("chat_id", message.Chat.ID).Warn("Request failed")
	h.reply(message, errorText(err))
}

func errorText(err error) string {
	switch {
	case errors.Is(err, models.ErrSettingsNotConfigured):
		return "⚙️ Office settings are not configured yet.\nUse /settings <days> <hours> <Mon,Wed,Fri,Tue,Thu>."
	case errors.Is(err, models.ErrValidation):
		return "❌ " + err.Error()
	case errors.Is(err, models.ErrUserNotFound):
		return "❌ User not found. Send /start first."
	case errors.Is(err, models.ErrPersistence):
		return "❌ Storage error, please try again later."
	case errors.Is(err, presence.ErrPipelineClosed):
		return "⏸ Presence tracking is shutting down, please try again later."
	default:
		return "❌ Something went wrong, please try again later."
	}
}

func (h *Handler) location() *time.Location {
	if h.config != nil && h.config.Location != nil {
		return h.config.Location
	}
	return time.UTC
}

func (h *Handler) today() time.Time {
	return models.DateOf(h.clock(), h.location())
}

// NotifyAnomaly tells the user about a presence anomaly.
func (h *Handler) NotifyAnomaly(ctx context.Context, userID uint, anomaly presence.Anomaly) {
	user, err := h.userService.GetByID(userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Warn("Cannot notify anomaly")
		return
	}

	at := anomaly.Time.In(h.location()).Format("2006-01-02 15:04")
	var text string
	switch anomaly.Kind {
	case presence.AnomalyStaleSession:
		text = fmt.Sprintf("⚠️ Your office session was closed automatically at %s because it ran too long.\nUse /day to correct the hours if needed.", at)
	case presence.AnomalyUnexpectedExit:
		text = fmt.Sprintf("⚠️ An office exit was detected at %s without a matching entry.", at)
	default:
		return
	}
	h.send(user.ChatID, text)
}
