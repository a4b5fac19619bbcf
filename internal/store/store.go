// Package store is the persistence collaborator: users, friendships and
// message history. The hub never writes here; it only reads the friend
// snapshot at connect time.
package store

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func Open(log *slog.Logger, dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&User{}, &Friendship{}, &Message{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db, logger: log.With(slog.String("component", "store"))}, nil
}

// --- Users ---

func (s *Store) CreateUser(user *User) error {
	var count int64
	if err := s.db.Model(&User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return ErrDuplicateEmail
	}
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) FindUserByEmail(email string) (*User, error) {
	var user User
	if err := s.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *Store) FindUserByID(id string) (*User, error) {
	var user User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// --- Friendships ---

// FriendIDs returns the identifiers of everyone the user is friends
// with. This is the friend-snapshot query the hub runs once per
// connection.
func (s *Store) FriendIDs(userID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&Friendship{}).Where("user_id = ?", userID).Pluck("friend_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return ids, nil
}

// AddFriendship links two users in both directions atomically.
func (s *Store) AddFriendship(userID, friendID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		rows := []Friendship{
			{UserID: userID, FriendID: friendID},
			{UserID: friendID, FriendID: userID},
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to create friendship: %w", err)
		}
		return nil
	})
}

// RemoveFriendship deletes both directions of a friendship.
func (s *Store) RemoveFriendship(userID, friendID string) error {
	err := s.db.Where(
		"(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		userID, friendID, friendID, userID,
	).Delete(&Friendship{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove friendship: %w", err)
	}
	return nil
}

// --- Messages ---

func (s *Store) SaveMessage(msg *Message) error {
	if err := s.db.Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// Conversation returns the message history between two users, oldest
// first.
func (s *Store) Conversation(userID, peerID string) ([]Message, error) {
	var msgs []Message
	err := s.db.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userID, peerID, peerID, userID,
	).Order("created_at asc").Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return msgs, nil
}
