package httpcontroller

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/soundlab/acoustics-go/internal/audio"
	"github.com/soundlab/acoustics-go/internal/capture"
	"github.com/soundlab/acoustics-go/internal/datastore"
)

// closeCodeMissingSession is sent when a connection never supplied a
// session id. The connection is refused before entering the session loop.
const closeCodeMissingSession = 4000

// meterMessage is the metering reply emitted for every processed chunk.
type meterMessage struct {
	Type     string    `json:"type"`
	RMS      float64   `json:"rms"`
	Spectrum []float64 `json:"spectrum"`
	Panning  float64   `json:"panning"`
}

// recordingSavedMessage confirms a finalized capture.
type recordingSavedMessage struct {
	Type     string `json:"type"`
	ID       uint   `json:"id"`
	Filename string `json:"filename"`
}

// Inbound commands, decoded once into one of the variants below based on
// the action field. Absent fields keep the defaults the variant was
// initialized with.
type commandEnvelope struct {
	Action string `json:"action"`
}

type initCommand struct {
	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
}

type startRecordCommand struct {
	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
}

type setParamsCommand struct {
	Gain            float64 `json:"gain"`
	FilterEnabled   bool    `json:"filter_enabled"`
	CutoffFreq      float64 `json:"cutoff_freq"`
	IntegrationTime float64 `json:"integration_time"`
}

// session is one live connection: its pipeline, its capture sink and the
// connection itself. All state is owned by the single read loop, so no
// locking is needed within a session.
type session struct {
	id        string
	conn      *websocket.Conn
	processor *audio.Processor
	recorder  *capture.Recorder
	server    *Server
	log       *slog.Logger
}

// handleAudioWebSocket upgrades the connection and runs the session
// protocol. A missing session id is fatal: the connection is closed with a
// distinct close code without processing any message.
func (s *Server) handleAudioWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		s.logger.Warn("no session_id provided in websocket connection")
		msg := websocket.FormatCloseMessage(closeCodeMissingSession, "session_id required")
		if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
			s.logger.Debug("failed to send close message", "error", err)
		}
		ws.Close()
		return nil
	}

	audioConf := s.Settings.Audio
	sess := &session{
		id:        sessionID,
		conn:      ws,
		processor: audio.NewProcessor(audioConf.SampleRate, audioConf.Channels, audioConf.ChunkSize),
		recorder:  capture.NewRecorder(s.Settings.Output.RecordingsPath),
		server:    s,
		log:       s.logger.With("session_id", sessionID),
	}

	s.metrics.SessionsOpened.Inc()
	s.metrics.ActiveSessions.Inc()
	defer s.metrics.ActiveSessions.Dec()

	sess.log.Info("websocket connected")
	sess.run()
	return nil
}

// run is the receive-classify-dispatch loop. One message is fully handled
// before the next is read, which keeps per-session ordering strictly FIFO
// and filter continuity intact. Command errors are recoverable; chunk
// processing errors are fatal for the session.
func (sess *session) run() {
	defer sess.teardown()

	for {
		msgType, data, err := sess.conn.ReadMessage()
		if err != nil {
			sess.log.Info("client disconnected", "error", err)
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := sess.handleChunk(data); err != nil {
				sess.log.Error("websocket error", "error", err)
				sess.server.metrics.WebsocketErrors.Inc()
				return
			}
		case websocket.TextMessage:
			sess.handleCommand(data)
		}
	}
}

// handleChunk runs one audio chunk through the pipeline, forwards the
// processed bytes to the capture sink when recording and replies with the
// metering measurement.
func (sess *session) handleChunk(chunk []byte) error {
	start := time.Now()
	processed, metrics, err := sess.processor.ProcessChunk(chunk)
	if err != nil {
		return err
	}
	sess.server.metrics.ChunksProcessed.Inc()
	sess.server.metrics.ChunkDuration.Observe(time.Since(start).Seconds())

	if sess.recorder.IsRecording() {
		if err := sess.recorder.Write(processed); err != nil {
			return err
		}
	}

	return sess.conn.WriteJSON(meterMessage{
		Type:     "meter",
		RMS:      metrics.RMSDecibels,
		Spectrum: metrics.Spectrum,
		Panning:  metrics.Panning,
	})
}

// handleCommand decodes and applies one control command. Malformed JSON and
// unknown actions are logged, never fatal.
func (sess *session) handleCommand(data []byte) {
	var env commandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		sess.log.Error("error processing command", "error", err)
		return
	}

	switch env.Action {
	case "init":
		cmd := initCommand{
			SampleRate: sess.server.Settings.Audio.SampleRate,
			Channels:   sess.server.Settings.Audio.Channels,
		}
		if err := json.Unmarshal(data, &cmd); err != nil {
			sess.log.Error("error processing command", "error", err)
			return
		}
		// Replace the pipeline wholesale, dropping all filter and
		// smoothing state.
		sess.processor = audio.NewProcessor(cmd.SampleRate, cmd.Channels, sess.server.Settings.Audio.ChunkSize)
		sess.log.Info("initialized audio pipeline",
			"sample_rate", cmd.SampleRate, "channels", cmd.Channels)

	case "start_record":
		cmd := startRecordCommand{
			SampleRate: sess.processor.SampleRate(),
			Channels:   sess.processor.Channels(),
		}
		if err := json.Unmarshal(data, &cmd); err != nil {
			sess.log.Error("error processing command", "error", err)
			return
		}
		snapshot := datastore.RecordingSettings{
			Gain:   sess.processor.GainDB(),
			Cutoff: sess.processor.CutoffFreq(),
			Filter: sess.processor.FilterEnabled(),
		}
		if err := sess.recorder.Start(snapshot, sess.id, cmd.SampleRate, cmd.Channels); err != nil {
			sess.log.Error("error starting capture", "error", err)
			return
		}
		sess.log.Info("started recording",
			"sample_rate", cmd.SampleRate, "channels", cmd.Channels)

	case "stop_record":
		rec, err := sess.recorder.Stop(sess.server.DS)
		if err != nil {
			sess.log.Error("error finalizing capture", "error", err)
			return
		}
		if rec == nil {
			return
		}
		sess.server.metrics.RecordingsSaved.Inc()
		if err := sess.conn.WriteJSON(recordingSavedMessage{
			Type:     "recording_saved",
			ID:       rec.ID,
			Filename: rec.Filename,
		}); err != nil {
			sess.log.Error("error sending recording_saved", "error", err)
		}
		sess.log.Info("stopped recording", "filename", rec.Filename)

	case "set_params":
		// Defaults mirror the command schema: absent fields reset to
		// their documented default, not to the current value.
		cmd := setParamsCommand{
			CutoffFreq:      audio.DefaultCutoffFreq,
			IntegrationTime: 0.5,
		}
		if err := json.Unmarshal(data, &cmd); err != nil {
			sess.log.Error("error processing command", "error", err)
			return
		}
		sess.processor.UpdateSettings(cmd.Gain, cmd.FilterEnabled, cmd.CutoffFreq, cmd.IntegrationTime)
		sess.log.Debug("updated params",
			"gain", cmd.Gain, "filter_enabled", cmd.FilterEnabled,
			"cutoff_freq", cmd.CutoffFreq, "integration_time", cmd.IntegrationTime)

	default:
		sess.log.Error("error processing command", "action", env.Action, "error", "unknown action")
	}
}

// teardown runs the disconnect cleanup exactly once per session: finalize
// an in-flight capture without replying, then purge every recording this
// session produced, catalog entries and backing files both.
func (sess *session) teardown() {
	if sess.recorder.IsRecording() {
		if _, err := sess.recorder.Stop(sess.server.DS); err != nil {
			sess.log.Error("failed to finalize capture on disconnect", "error", err)
		}
	}

	sess.log.Info("cleaning up recordings for session")
	sess.server.purgeSessionRecordings(sess.id)
	sess.conn.Close()
}

// purgeSessionRecordings deletes all recordings for a session id. File
// removal failures are logged but do not stop the purge of the remaining
// records or the catalog entries.
func (s *Server) purgeSessionRecordings(sessionID string) {
	recordings, err := s.DS.GetRecordingsBySession(sessionID)
	if err != nil {
		s.logger.Error("failed to query recordings for cleanup", "session_id", sessionID, "error", err)
		return
	}

	for i := range recordings {
		path := filepath.Join(s.Settings.Output.RecordingsPath, recordings[i].Filename)
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				s.logger.Error("error deleting file", "path", path, "error", err)
			}
		}
		if err := s.DS.DeleteRecording(recordings[i].Filename); err != nil {
			s.logger.Error("error deleting recording entry", "filename", recordings[i].Filename, "error", err)
			continue
		}
		s.metrics.RecordingsPurged.Inc()
	}
}
