package models

import "time"

// PostFollow subscribes a user to a post. Same uniqueness and toggle
// lifecycle as Like, one row per (user, post) pair.
type PostFollow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_follows_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_follows_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
