package models

import "time"

type SyncOutcome string

const (
	SyncPublished     SyncOutcome = "published"
	SyncPublishFailed SyncOutcome = "publish_failed"
	SyncSkipped       SyncOutcome = "skipped"
)

type SyncRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index"`
	CardID    string `gorm:"index"`
	CardName  string
	Client    string
	UTMSource string
	UTMMedium string
	Outcome   SyncOutcome
	Detail    string
	CreatedAt time.Time
}

type UploadRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index"`
	CardID    string `gorm:"index"`
	CardName  string
	File      string
	Status    UploadStatus
	Detail    string
	CreatedAt time.Time
}
