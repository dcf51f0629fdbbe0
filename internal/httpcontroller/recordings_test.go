package httpcontroller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundlab/acoustics-go/internal/conf"
	"github.com/soundlab/acoustics-go/internal/datastore"
)

// newTestServer builds a Server on temporary storage and exposes it through
// an httptest listener.
func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	dir := t.TempDir()
	settings := &conf.Settings{
		Server: conf.ServerSettings{
			Host:       "127.0.0.1",
			Port:       "0",
			CORSOrigin: "http://localhost:3000",
		},
		Audio: conf.AudioSettings{SampleRate: 44100, Channels: 2, ChunkSize: 1024},
		Output: conf.OutputSettings{
			RecordingsPath: filepath.Join(dir, "recordings"),
			SQLite:         conf.SQLiteSettings{Path: filepath.Join(dir, "test.db")},
		},
	}
	require.NoError(t, os.MkdirAll(settings.Output.RecordingsPath, 0o755))

	ds := datastore.New(settings.Output.SQLite.Path)
	require.NoError(t, ds.Open())
	t.Cleanup(func() {
		require.NoError(t, ds.Close())
	})

	s := New(settings, ds)
	ts := httptest.NewServer(s.Echo)
	t.Cleanup(ts.Close)
	return s, ts
}

func seedRecording(t *testing.T, s *Server, filename, sessionID string, at time.Time) {
	t.Helper()

	require.NoError(t, s.DS.SaveRecording(&datastore.Recording{
		Filename:        filename,
		DurationSeconds: 1.0,
		Timestamp:       at,
		SessionID:       sessionID,
		Channels:        2,
	}))
	path := filepath.Join(s.Settings.Output.RecordingsPath, filename)
	require.NoError(t, os.WriteFile(path, []byte("RIFF0000WAVE"), 0o644))
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleGetRecordings(t *testing.T) {
	s, ts := newTestServer(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedRecording(t, s, "rec_a.wav", "session-1", base)
	seedRecording(t, s, "rec_b.wav", "session-1", base.Add(time.Minute))
	seedRecording(t, s, "rec_c.wav", "session-2", base.Add(2*time.Minute))

	t.Run("lists newest first", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/recordings")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var recordings []datastore.Recording
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&recordings))
		require.Len(t, recordings, 3)
		assert.Equal(t, "rec_c.wav", recordings[0].Filename)
		assert.Equal(t, "rec_a.wav", recordings[2].Filename)
	})

	t.Run("filters by session", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/recordings?session_id=session-2")
		require.NoError(t, err)
		defer resp.Body.Close()

		var recordings []datastore.Recording
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&recordings))
		require.Len(t, recordings, 1)
		assert.Equal(t, "rec_c.wav", recordings[0].Filename)
	})

	t.Run("pages with skip and limit", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/recordings?skip=1&limit=1")
		require.NoError(t, err)
		defer resp.Body.Close()

		var recordings []datastore.Recording
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&recordings))
		require.Len(t, recordings, 1)
		assert.Equal(t, "rec_b.wav", recordings[0].Filename)
	})

	t.Run("rejects malformed skip", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/recordings?skip=abc")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects negative limit", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/recordings?limit=-5")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleDownloadRecording(t *testing.T) {
	s, ts := newTestServer(t)
	seedRecording(t, s, "rec_a.wav", "session-1", time.Now().UTC())

	t.Run("serves the file", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/recordings/rec_a.wav")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "rec_a.wav")
	})

	t.Run("missing file is 404", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/recordings/rec_missing.wav")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHandleDeleteRecording(t *testing.T) {
	s, ts := newTestServer(t)
	seedRecording(t, s, "rec_a.wav", "session-1", time.Now().UTC())

	t.Run("removes row and file", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/recordings/rec_a.wav", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		_, err = s.DS.GetRecordingByFilename("rec_a.wav")
		assert.ErrorIs(t, err, datastore.ErrRecordingNotFound)

		_, err = os.Stat(filepath.Join(s.Settings.Output.RecordingsPath, "rec_a.wav"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("unknown recording is 404", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/recordings/rec_a.wav", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSafeFilename(t *testing.T) {
	s := &Server{}

	name, err := s.safeFilename("rec_a.wav")
	require.NoError(t, err)
	assert.Equal(t, "rec_a.wav", name)

	_, err = s.safeFilename("../secrets.db")
	assert.Error(t, err)

	_, err = s.safeFilename("")
	assert.Error(t, err)
}
