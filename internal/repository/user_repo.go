package repository

import (
	"errors"

	"go2office/internal/logging"
	"go2office/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByChatID(chatID int64) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetAll() ([]models.User, error)
	UpdateRole(chatID int64, role models.Role) error
}

type GormUserRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormUserRepository(db *gorm.DB) (*GormUserRepository, error) {
	logger := logging.New()

	if err := db.AutoMigrate(&models.User{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate users table")
		return nil, err
	}

	logger.Debug("User repository initialized")

	return &GormUserRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		r.logger.WithError(err).WithField("chat_id", user.ChatID).Error("Failed to create user")
		return models.NewPersistenceError("create user", err)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"chat_id": user.ChatID,
		"role":    user.Role,
	}).Info("User created")
	return nil
}

func (r *GormUserRepository) GetByChatID(chatID int64) (*models.User, error) {
	var user models.User
	result := r.db.Where("chat_id = ?", chatID).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get user by chat ID")
		return nil, models.NewPersistenceError("get user", result.Error)
	}
	return &user, nil
}

func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get user by ID")
		return nil, models.NewPersistenceError("get user", result.Error)
	}
	return &user, nil
}

func (r *GormUserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	if err := r.db.Order("id").Find(&users).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list users")
		return nil, models.NewPersistenceError("list users", err)
	}
	return users, nil
}

func (r *GormUserRepository) UpdateRole(chatID int64, role models.Role) error {
	result := r.db.Model(&models.User{}).Where("chat_id = ?", chatID).Update("role", role)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update user role")
		return models.NewPersistenceError("update user role", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}

	r.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"role":    role,
	}).Info("User role updated")
	return nil
}
