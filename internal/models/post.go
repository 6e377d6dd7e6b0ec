package models

import (
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string         `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Body      string         `gorm:"column:body;type:text" json:"body"`
	PhotoURLs pq.StringArray `gorm:"column:photo_urls;type:text[]" json:"photo_urls"`
	LikeCount int64          `gorm:"column:like_count;default:0" json:"like_count"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (Post) TableName() string { return "posts" }

type PostLike struct {
	PostID    string    `gorm:"column:post_id;type:uuid;primaryKey" json:"post_id"`
	UserID    string    `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (PostLike) TableName() string { return "post_likes" }
