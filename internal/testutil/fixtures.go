package testutil

import (
	"fmt"
	"testing"
	"time"

	"anoa.com/warbler/internal/entity"
	"anoa.com/warbler/pkg/credential"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password is the plaintext password of every user made by CreateUser.
const Password = "hunter22"

// Hasher is a cheap bcrypt hasher for tests.
func Hasher() *credential.Hasher {
	return credential.NewHasher(bcrypt.MinCost)
}

func CreateUser(t *testing.T, db *gorm.DB, username string) *entity.User {
	t.Helper()

	hash, err := Hasher().Hash(Password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &entity.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: hash,
	}
	user.ApplyImageDefaults()
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

// CreateMessage stores a message with an explicit timestamp so ordering is deterministic.
func CreateMessage(t *testing.T, db *gorm.DB, author *entity.User, text string, at time.Time) *entity.Message {
	t.Helper()

	msg := &entity.Message{Text: text, UserID: author.ID, Timestamp: at.UTC()}
	if err := db.Omit("User").Create(msg).Error; err != nil {
		t.Fatalf("create message: %v", err)
	}
	return msg
}

func Follow(t *testing.T, db *gorm.DB, follower, followed *entity.User) {
	t.Helper()

	if err := db.Create(&entity.Follow{FollowerID: follower.ID, FollowedID: followed.ID}).Error; err != nil {
		t.Fatalf("follow: %v", err)
	}
}
