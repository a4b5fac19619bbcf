package store

import "time"

type User struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// Friendship is directional; accepting a request inserts both rows so
// a friend list is a single-predicate query.
type Friendship struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"index;not null"`
	FriendID  string `gorm:"not null"`
	CreatedAt time.Time
}

type Message struct {
	ID         uint   `gorm:"primaryKey"`
	SenderID   string `gorm:"index;not null"`
	ReceiverID string `gorm:"index;not null"`
	Content    string `gorm:"not null"`
	Status     string
	CreatedAt  time.Time
}
