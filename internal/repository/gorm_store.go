package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/b4knamy/online-chat-backend/internal/domain"
	"github.com/b4knamy/online-chat-backend/pkg/log"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed store and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&domain.UserModel{}, &domain.RoomModel{}, &domain.MessageModel{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateRoom(ctx context.Context, admin *domain.User, name string) (*domain.Room, error) {
	l := log.Ctx(ctx)

	model := &domain.RoomModel{
		ID:       uuid.New().String(),
		Name:     name,
		AdminID:  admin.ID,
		MaxUsers: domain.DefaultMaxUsers,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var adminModel domain.UserModel
		if err := tx.First(&adminModel, "id = ?", admin.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if adminModel.HasRoom {
			return ErrUserHasRoom
		}

		if err := tx.Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrRoomExists
			}
			return err
		}

		return tx.Model(&adminModel).Update("has_room", true).Error
	})
	if err != nil {
		if !errors.Is(err, ErrRoomExists) && !errors.Is(err, ErrUserHasRoom) {
			l.Error().Err(err).Str(log.FieldRoom, name).Msg("failed to create room in db")
		}
		return nil, err
	}

	admin.HasRoom = true
	room := model.ToDomain()
	room.Admin = *admin
	l.Debug().Str("room_id", room.ID).Str(log.FieldRoom, name).Msg("room created in db")
	return room, nil
}

func (s *GormStore) DeleteRoom(ctx context.Context, name string) (*domain.Room, error) {
	l := log.Ctx(ctx)

	var model domain.RoomModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Admin").First(&model, "name = ?", name).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		// Room deletion cascades to its messages.
		if err := tx.Where("room_id = ?", model.ID).Delete(&domain.MessageModel{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.RoomModel{}, "id = ?", model.ID).Error; err != nil {
			return err
		}

		return tx.Model(&domain.UserModel{}).Where("id = ?", model.AdminID).Update("has_room", false).Error
	})
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) {
			l.Error().Err(err).Str(log.FieldRoom, name).Msg("failed to delete room from db")
		}
		return nil, err
	}

	room := model.ToDomain()
	room.Admin.HasRoom = false
	l.Debug().Str("room_id", room.ID).Str(log.FieldRoom, name).Msg("room deleted from db")
	return room, nil
}

func (s *GormStore) CreateMessage(ctx context.Context, user *domain.User, room *domain.Room, text string) (*domain.Message, error) {
	l := log.Ctx(ctx)

	model := &domain.MessageModel{
		ID:     uuid.New().String(),
		UserID: user.ID,
		RoomID: room.ID,
		Text:   text,
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Str("room_id", room.ID).Msg("failed to create message in db")
		return nil, err
	}

	return &domain.Message{
		ID:        model.ID,
		User:      *user,
		RoomID:    room.ID,
		Text:      text,
		CreatedAt: model.CreatedAt,
	}, nil
}

func (s *GormStore) GetUser(ctx context.Context, username string) (*domain.User, error) {
	var model domain.UserModel
	if err := s.db.WithContext(ctx).First(&model, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (s *GormStore) GetCredentials(ctx context.Context, username string) (*domain.User, string, error) {
	var model domain.UserModel
	if err := s.db.WithContext(ctx).First(&model, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}
	return model.ToDomain(), model.PasswordHash, nil
}

func (s *GormStore) GetRoom(ctx context.Context, name string) (*domain.Room, error) {
	var model domain.RoomModel
	err := s.db.WithContext(ctx).Preload("Admin").First(&model, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (s *GormStore) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var models []domain.RoomModel
	err := s.db.WithContext(ctx).
		Preload("Admin").
		Preload("Messages").
		Preload("Messages.User").
		Order("created_at").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	rooms := make([]domain.Room, len(models))
	for i := range models {
		rooms[i] = *models[i].ToDomain()
	}
	return rooms, nil
}

func (s *GormStore) ListUsernames(ctx context.Context) ([]string, error) {
	var usernames []string
	err := s.db.WithContext(ctx).
		Model(&domain.UserModel{}).
		Order("username").
		Pluck("username", &usernames).Error
	return usernames, err
}

func (s *GormStore) SaveUser(ctx context.Context, user *domain.User) error {
	return s.db.WithContext(ctx).
		Model(&domain.UserModel{}).
		Where("id = ?", user.ID).
		Update("has_room", user.HasRoom).Error
}

func (s *GormStore) EnsureUser(ctx context.Context, username, passwordHash string) error {
	var model domain.UserModel
	err := s.db.WithContext(ctx).First(&model, "username = ?", username).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.db.WithContext(ctx).Create(&domain.UserModel{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
	}).Error
}
