package httpcontroller

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/soundlab/acoustics-go/internal/buildinfo"
	"github.com/soundlab/acoustics-go/internal/datastore"
)

const defaultListLimit = 100

// handleHealth reports process liveness and the running build.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// handleGetRecordings lists recordings, newest first. Query parameters:
// session_id filters to one session, skip/limit page through the results.
func (s *Server) handleGetRecordings(c echo.Context) error {
	sessionID := c.QueryParam("session_id")

	skip := 0
	if v := c.QueryParam("skip"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid skip parameter")
		}
		skip = parsed
	}

	limit := defaultListLimit
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
		limit = parsed
	}

	recordings, err := s.DS.GetRecordings(sessionID, skip, limit)
	if err != nil {
		s.logger.Error("failed to list recordings", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list recordings")
	}
	return c.JSON(http.StatusOK, recordings)
}

// handleDownloadRecording serves a recording file as a WAV download.
func (s *Server) handleDownloadRecording(c echo.Context) error {
	filename, err := s.safeFilename(c.Param("filename"))
	if err != nil {
		return err
	}

	path := filepath.Join(s.Settings.Output.RecordingsPath, filename)
	if _, err := os.Stat(path); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}
	return c.Attachment(path, filename)
}

// handleDeleteRecording removes a recording from the catalog and the
// filesystem. The catalog entry goes first; a filesystem failure after that
// is reported as a server error.
func (s *Server) handleDeleteRecording(c echo.Context) error {
	filename, err := s.safeFilename(c.Param("filename"))
	if err != nil {
		return err
	}

	if err := s.DS.DeleteRecording(filename); err != nil {
		if errors.Is(err, datastore.ErrRecordingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Recording not found")
		}
		s.logger.Error("failed to delete recording entry", "filename", filename, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete recording")
	}

	path := filepath.Join(s.Settings.Output.RecordingsPath, filename)
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			s.logger.Error("failed to delete recording file", "path", path, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete file")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "filename": filename})
}

// safeFilename rejects path components that would escape the recordings
// directory.
func (s *Server) safeFilename(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid filename")
	}
	return name, nil
}
