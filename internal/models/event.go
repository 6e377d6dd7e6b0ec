package models

import (
	"time"

	"gorm.io/datatypes"
)

type Event struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CreatedBy   string         `gorm:"column:created_by;type:uuid;index" json:"created_by"`
	Title       string         `gorm:"column:title;type:text" json:"title"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Location    string         `gorm:"column:location;type:text" json:"location"`
	StartsAt    time.Time      `gorm:"column:starts_at;type:timestamptz;index" json:"starts_at"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt   time.Time      `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Event) TableName() string { return "events" }

type EventRSVP struct {
	EventID   string    `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	UserID    string    `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (EventRSVP) TableName() string { return "event_rsvps" }
