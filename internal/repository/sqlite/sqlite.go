// Package sqlite keeps users and emotions in a local SQLite file through gorm,
// for running without a hosted backend.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/user"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
)

type userRow struct {
	ID       string `gorm:"primaryKey;type:varchar(64)"`
	Username string `gorm:"uniqueIndex;type:varchar(255);not null"`
	Password string `gorm:"type:text;not null"`
}

func (userRow) TableName() string { return "users" }

type emotionRow struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"index:idx_emotions_user_ts;type:varchar(64);not null"`
	Timestamp time.Time `gorm:"index:idx_emotions_user_ts;not null"`
	Emotion   string    `gorm:"type:text;not null"`
}

func (emotionRow) TableName() string { return "emotions" }

// Open opens (creating if needed) the database at path and migrates both tables.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&userRow{}, &emotionRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

// UserRepository implements repository.UserRepository with gorm.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u user.User) error {
	row := userRow{ID: u.ID, Username: u.Username, Password: u.PasswordHash}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, repository.ErrNotFound
		}
		return user.User{}, fmt.Errorf("select user: %w", err)
	}
	return user.User{ID: row.ID, Username: row.Username, PasswordHash: row.Password}, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Update("password", passwordHash)
	if result.Error != nil {
		return fmt.Errorf("update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EmotionRepository implements repository.EmotionRepository with gorm.
type EmotionRepository struct {
	db *gorm.DB
}

func NewEmotionRepository(db *gorm.DB) *EmotionRepository {
	return &EmotionRepository{db: db}
}

func (r *EmotionRepository) Insert(ctx context.Context, record emotion.Record) error {
	row := emotionRow{UserID: record.UserID, Timestamp: record.Timestamp.UTC(), Emotion: record.Emotions.Literal()}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert emotion: %w", err)
	}
	return nil
}

func (r *EmotionRepository) ListByUser(ctx context.Context, userID string) ([]emotion.Record, error) {
	var rows []emotionRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp asc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("select emotions: %w", err)
	}

	records := make([]emotion.Record, 0, len(rows))
	for _, row := range rows {
		labels, err := emotion.ParseLiteral(row.Emotion)
		if err != nil {
			return nil, fmt.Errorf("decode emotions of %s: %w", userID, err)
		}
		records = append(records, emotion.Record{UserID: row.UserID, Timestamp: row.Timestamp, Emotions: labels})
	}
	return records, nil
}

// NewStore bundles both repositories over db.
func NewStore(db *gorm.DB) repository.Store {
	return repository.Store{
		Users:    NewUserRepository(db),
		Emotions: NewEmotionRepository(db),
		Close: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}
