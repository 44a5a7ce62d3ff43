package models

import "time"

const (
	FormatApp      = "app"
	FormatProvider = "flo"
)

// Dataset is a sealed canonical export imported for one profile.
type Dataset struct {
	ID         string    `gorm:"primaryKey"`
	Profile    string    `gorm:"not null;index"`
	Format     string    `gorm:"not null"`
	SourceName string    `gorm:"not null;default:''"`
	CycleCount int       `gorm:"not null;default:0"`
	LogCount   int       `gorm:"not null;default:0"`
	Salt       []byte    `gorm:"not null"`
	Sealed     []byte    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

type TrainedModel struct {
	ID        uint        `gorm:"primaryKey"`
	Profile   string      `gorm:"not null;uniqueIndex"`
	DatasetID string      `gorm:"not null"`
	Params    ModelParams `gorm:"serializer:json;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
