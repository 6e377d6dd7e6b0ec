package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Profile struct {
	UserID      string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	DisplayName string `gorm:"column:display_name;type:text" json:"display_name"`
	Bio         string `gorm:"column:bio;type:text" json:"bio"`
	Campus      string `gorm:"column:campus;type:text" json:"campus"`
	Major       string `gorm:"column:major;type:text" json:"major"`
	GradYear    int    `gorm:"column:grad_year" json:"grad_year"`

	Interests pq.StringArray `gorm:"column:interests;type:text[]" json:"interests"`
	PhotoURLs pq.StringArray `gorm:"column:photo_urls;type:text[]" json:"photo_urls"`

	// JSONB (raw JSON, flexible structure)
	Preferences datatypes.JSON `gorm:"column:preferences;type:jsonb" json:"preferences"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// PublicProfile is the redacted view handed to a blind-session partner after a
// reveal or a mutual extension. It never carries contact fields.
type PublicProfile struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio"`
	Campus      string   `json:"campus"`
	Major       string   `json:"major"`
	Interests   []string `json:"interests"`
	PhotoURLs   []string `json:"photo_urls"`
}

func (p *Profile) Public() *PublicProfile {
	if p == nil {
		return nil
	}
	return &PublicProfile{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		Campus:      p.Campus,
		Major:       p.Major,
		Interests:   p.Interests,
		PhotoURLs:   p.PhotoURLs,
	}
}
