// interfaces.go: this code defines the interface for the recording catalog operations
package datastore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrRecordingNotFound is returned when a lookup or delete targets a
// filename the catalog does not hold.
var ErrRecordingNotFound = errors.New("recording not found")

// Interface abstracts the underlying database implementation and defines
// the catalog operations used by the capture sink and the HTTP surface.
type Interface interface {
	Open() error
	Close() error
	SaveRecording(recording *Recording) error
	GetRecordings(sessionID string, offset, limit int) ([]Recording, error)
	GetRecordingsBySession(sessionID string) ([]Recording, error)
	GetRecordingByFilename(filename string) (*Recording, error)
	DeleteRecording(filename string) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// SaveRecording inserts a new Recording row.
func (ds *DataStore) SaveRecording(recording *Recording) error {
	if ds.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	if err := ds.DB.Create(recording).Error; err != nil {
		return fmt.Errorf("saving recording: %w", err)
	}
	return nil
}

// GetRecordings returns recordings ordered by recency. An empty sessionID
// matches all sessions.
func (ds *DataStore) GetRecordings(sessionID string, offset, limit int) ([]Recording, error) {
	query := ds.DB.Model(&Recording{})
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}

	var recordings []Recording
	if err := query.Order("timestamp DESC").Offset(offset).Limit(limit).Find(&recordings).Error; err != nil {
		return nil, fmt.Errorf("getting recordings: %w", err)
	}
	return recordings, nil
}

// GetRecordingsBySession returns every recording made during the given
// session, used by disconnect cleanup.
func (ds *DataStore) GetRecordingsBySession(sessionID string) ([]Recording, error) {
	var recordings []Recording
	if err := ds.DB.Where("session_id = ?", sessionID).Find(&recordings).Error; err != nil {
		return nil, fmt.Errorf("getting recordings for session %s: %w", sessionID, err)
	}
	return recordings, nil
}

// GetRecordingByFilename looks up a single recording.
func (ds *DataStore) GetRecordingByFilename(filename string) (*Recording, error) {
	var recording Recording
	err := ds.DB.Where("filename = ?", filename).First(&recording).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting recording %s: %w", filename, err)
	}
	return &recording, nil
}

// DeleteRecording removes the catalog row for the given filename.
func (ds *DataStore) DeleteRecording(filename string) error {
	result := ds.DB.Where("filename = ?", filename).Delete(&Recording{})
	if result.Error != nil {
		return fmt.Errorf("deleting recording %s: %w", filename, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordingNotFound
	}
	return nil
}
