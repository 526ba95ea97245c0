package entity

import "time"

// Follow is a directed edge: FollowerID receives FollowedID's messages.
// The composite primary key keeps at most one edge per ordered pair.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	Follower   User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:RESTRICT" json:"-"`
	FollowedID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followed_id"`
	Followed   User      `gorm:"foreignKey:FollowedID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}
