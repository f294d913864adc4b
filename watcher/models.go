package watcher

import "time"

// Spot is one activation report as delivered by the feed. Immutable after
// decode; the pipeline never writes to it.
type Spot struct {
	SpotID       int64  `json:"spotId"`
	Activator    string `json:"activator"`
	Spotter      string `json:"spotter"`
	Reference    string `json:"reference"`
	Frequency    string `json:"frequency"`
	Mode         string `json:"mode"`
	Comments     string `json:"comments"`
	Name         string `json:"name"`
	LocationDesc string `json:"locationDesc"`
	SpotTime     string `json:"spotTime"`
}

type SeenSpot struct {
	ID        uint      `gorm:"primaryKey"`
	SpotID    int64     `gorm:"index"`
	Activator string    `gorm:"index;size:32"`
	Spotter   string    `gorm:"size:32"`
	Reference string    `gorm:"index;size:32"`
	Frequency string    `gorm:"size:16"`
	Mode      string    `gorm:"size:16"`
	Comments  string    `gorm:"type:text"`
	Matched   bool      `gorm:"index"`
	SeenAt    time.Time `gorm:"index"`
}

type DispatchRecord struct {
	ID           uint   `gorm:"primaryKey"`
	SpotID       int64  `gorm:"index"`
	Activator    string `gorm:"index;size:32"`
	Reference    string `gorm:"size:32"`
	Alerted      bool
	PopupShown   bool
	Spoken       bool
	SpeechError  string    `gorm:"type:text"`
	DispatchedAt time.Time `gorm:"index"`
}
