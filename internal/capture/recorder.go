// Package capture persists the processed audio stream of a session to a
// durable WAV file. Chunks are appended to a raw temporary file while a
// capture is active; Stop reads them back, encodes the WAV container and
// persists a catalog entry.
package capture

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/soundlab/acoustics-go/internal/datastore"
	"github.com/soundlab/acoustics-go/internal/logging"
)

const bitDepth = 16

// Recorder buffers a single capture at a time. It is owned by one session
// and driven from that session's loop, so it needs no locking of its own.
type Recorder struct {
	dir string
	log *slog.Logger

	isRecording bool
	sessionID   string
	sampleRate  int
	channels    int
	settings    datastore.RecordingSettings
	startTime   time.Time

	filename string
	tempPath string
	file     *os.File
}

// NewRecorder creates an idle recorder writing into dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{
		dir: dir,
		log: logging.ForService("capture"),
	}
}

// IsRecording reports whether a capture is active.
func (r *Recorder) IsRecording() bool {
	return r.isRecording
}

// Filename returns the target filename of the active or last capture.
func (r *Recorder) Filename() string {
	return r.filename
}

// Start begins a new capture, discarding any prior buffered state. The
// settings snapshot records the pipeline configuration the capture was made
// with. The filename is derived from the capture start time.
func (r *Recorder) Start(settings datastore.RecordingSettings, sessionID string, sampleRate, channels int) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating recordings directory: %w", err)
	}

	r.isRecording = true
	r.settings = settings
	r.sessionID = sessionID
	r.sampleRate = sampleRate
	r.channels = channels
	r.startTime = time.Now().UTC()

	stamp := r.startTime.Format("20060102_150405")
	r.filename = fmt.Sprintf("rec_%s.wav", stamp)
	r.tempPath = filepath.Join(r.dir, fmt.Sprintf("rec_%s.raw", stamp))
	r.file = nil
	return nil
}

// Write appends processed PCM bytes to the capture. It is a no-op while
// idle. The temporary file is opened lazily on the first chunk so a capture
// that never receives audio leaves nothing behind.
func (r *Recorder) Write(chunk []byte) error {
	if !r.isRecording {
		return nil
	}

	if r.file == nil {
		f, err := os.OpenFile(r.tempPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening capture file: %w", err)
		}
		r.file = f
	}

	if _, err := r.file.Write(chunk); err != nil {
		return fmt.Errorf("writing capture chunk: %w", err)
	}
	return nil
}

// Stop finalizes the capture: the temporary stream is closed and read back,
// encoded into a WAV file and persisted as a catalog entry through ds. It
// returns nil without creating a record when the recorder is idle or no
// chunk was ever written. The recorder is idle again when Stop returns.
func (r *Recorder) Stop(ds datastore.Interface) (*datastore.Recording, error) {
	if !r.isRecording {
		return nil, nil
	}
	r.isRecording = false

	if r.file != nil {
		if err := r.file.Close(); err != nil {
			r.log.Error("failed to close capture file", "path", r.tempPath, "error", err)
		}
		r.file = nil
	}

	if _, err := os.Stat(r.tempPath); err != nil {
		// Zero chunks written, nothing to finalize.
		return nil, nil
	}

	pcmData, err := os.ReadFile(r.tempPath)
	if err != nil {
		return nil, fmt.Errorf("reading capture data: %w", err)
	}
	if err := os.Remove(r.tempPath); err != nil {
		r.log.Error("failed to remove temporary capture file", "path", r.tempPath, "error", err)
	}

	finalPath := filepath.Join(r.dir, r.filename)
	if err := savePCMToWAV(finalPath, pcmData, r.sampleRate, r.channels); err != nil {
		return nil, err
	}

	// 2 bytes per sample, channels samples per frame.
	duration := float64(len(pcmData)) / float64(2*r.channels*r.sampleRate)

	recording := &datastore.Recording{
		Filename:        r.filename,
		DurationSeconds: duration,
		Timestamp:       r.startTime,
		Settings:        r.settings,
		SessionID:       r.sessionID,
		Channels:        r.channels,
	}
	if err := ds.SaveRecording(recording); err != nil {
		return nil, err
	}

	r.log.Info("capture finalized",
		"filename", r.filename,
		"session_id", r.sessionID,
		"duration_seconds", duration)
	return recording, nil
}

// savePCMToWAV writes raw 16-bit PCM data into a WAV container.
func savePCMToWAV(filePath string, pcmData []byte, sampleRate, channels int) error {
	outFile, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close()

	enc := wav.NewEncoder(outFile, sampleRate, bitDepth, channels, 1)

	intSamples := byteSliceToInts(pcmData)
	if err := enc.Write(&audio.IntBuffer{
		Data:   intSamples,
		Format: &audio.Format{SampleRate: sampleRate, NumChannels: channels},
	}); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}

	return enc.Close()
}

// byteSliceToInts converts little-endian PCM bytes into 16-bit samples.
func byteSliceToInts(pcmData []byte) []int {
	samples := make([]int, 0, len(pcmData)/2)
	for i := 0; i+1 < len(pcmData); i += 2 {
		samples = append(samples, int(int16(uint16(pcmData[i])|uint16(pcmData[i+1])<<8)))
	}
	return samples
}
