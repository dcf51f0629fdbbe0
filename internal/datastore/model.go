// model.go defines the data model for the recording catalog
package datastore

import "time"

// RecordingSettings is the pipeline settings snapshot persisted with each
// recording, taken at capture start.
type RecordingSettings struct {
	Gain   float64 `json:"gain"`
	Cutoff float64 `json:"cutoff"`
	Filter bool    `json:"filter"`
}

// Recording represents one finalized capture. Rows are never mutated after
// creation; they are removed either by an explicit delete request or by
// session-disconnect cleanup.
type Recording struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	Filename        string            `gorm:"uniqueIndex" json:"filename"`
	DurationSeconds float64           `json:"duration_seconds"`
	Timestamp       time.Time         `json:"timestamp"`
	Settings        RecordingSettings `gorm:"serializer:json" json:"settings"`
	SessionID       string            `gorm:"index" json:"session_id"`
	Channels        int               `gorm:"default:2" json:"channels"`
}
