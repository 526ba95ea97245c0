package bootstrap

import (
	"context"
	"errors"

	"anoa.com/warbler/internal/entity"
	"anoa.com/warbler/pkg/credential"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Message{},
		&entity.Follow{},
		&entity.Like{},
		&entity.Notification{},
	)
}

type seedUser struct {
	username string
	email    string
	bio      string
	messages []string
}

var demoUsers = []seedUser{
	{"alice", "alice@warbler.test", "Birdwatcher.", []string{"First warble!", "Coffee is a personality."}},
	{"bob", "bob@warbler.test", "Mostly lurking.", []string{"Hello from bob"}},
	{"carol", "carol@warbler.test", "", []string{"Anyone up for a hike?"}},
}

// SeedDemoData creates a handful of users, messages and follow edges for
// local development. It is a no-op once the first demo user exists.
func SeedDemoData(ctx context.Context, db *gorm.DB, hasher *credential.Hasher) error {
	var existing entity.User
	err := db.WithContext(ctx).Where("username = ?", demoUsers[0].username).First(&existing).Error
	if err == nil {
		logrus.Info("demo data already present, skipping seed")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := hasher.Hash("password")
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, 0, len(demoUsers))
		for _, su := range demoUsers {
			u := entity.User{Username: su.username, Email: su.email, PasswordHash: hash}
			if su.bio != "" {
				bio := su.bio
				u.Bio = &bio
			}
			u.ApplyImageDefaults()
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
			ids = append(ids, u.ID)

			for _, text := range su.messages {
				if err := tx.Create(&entity.Message{UserID: u.ID, Text: text, Timestamp: tx.NowFunc()}).Error; err != nil {
					return err
				}
			}
		}

		// alice follows bob and carol, bob follows alice
		edges := []entity.Follow{
			{FollowerID: ids[0], FollowedID: ids[1]},
			{FollowerID: ids[0], FollowedID: ids[2]},
			{FollowerID: ids[1], FollowedID: ids[0]},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges).Error; err != nil {
			return err
		}

		logrus.WithField("users", len(ids)).Info("demo data seeded (password: \"password\")")
		return nil
	})
}
