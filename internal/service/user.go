package service

import (
	"fmt"
	"strings"

	"go2office/internal/logging"
	"go2office/internal/models"
	"go2office/internal/repository"

	"github.com/sirupsen/logrus"
)

type UserService struct {
	repo   repository.UserRepository
	logger *logrus.Logger
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{
		repo:   repo,
		logger: logging.New(),
	}
}

// Register returns the user for chatID, creating a client on first contact.
func (s *UserService) Register(chatID int64, username, firstName, lastName string) (*models.User, bool, error) {
	existing, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if firstName == "" {
		firstName = username
	}
	user := &models.User{
		ChatID:    chatID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleClient,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) Get(chatID int64) (*models.User, error) {
	user, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) GetAll() ([]models.User, error) {
	return s.repo.GetAll()
}

func (s *UserService) IsAdmin(chatID int64) (bool, error) {
	user, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsAdmin(), nil
}

// InitializeAdmin promotes the configured chat to admin, creating it if needed.
func (s *UserService) InitializeAdmin(adminChatID int64) error {
	if adminChatID == 0 {
		return nil
	}

	existing, err := s.repo.GetByChatID(adminChatID)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.IsAdmin() {
			return nil
		}
		return s.repo.UpdateRole(adminChatID, models.RoleAdmin)
	}

	s.logger.WithField("chat_id", adminChatID).Info("Creating base admin")
	return s.repo.Create(&models.User{
		ChatID:    adminChatID,
		Username:  "admin",
		FirstName: "Administrator",
		Role:      models.RoleAdmin,
	})
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) FormatAllUsers(users []models.User) string {
	if len(users) == 0 {
		return "📭 No users yet."
	}

	var lines []string
	lines = append(lines, "📋 Users:")
	lines = append(lines, "")

	admins := 0
	for i, user := range users {
		roleEmoji := "👤"
		if user.IsAdmin() {
			roleEmoji = "👑"
			admins++
		}
		line := fmt.Sprintf("%d. %s %s", i+1, roleEmoji, user.DisplayName())
		if user.Username != "" {
			line += fmt.Sprintf(" (@%s)", user.Username)
		}
		lines = append(lines, line+fmt.Sprintf(" - ID: %d", user.ChatID))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("📊 Total: %d, admins: %d", len(users), admins))
	return strings.Join(lines, "\n")
}
