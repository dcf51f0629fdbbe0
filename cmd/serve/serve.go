// Package serve implements the command starting the audio server.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundlab/acoustics-go/internal/conf"
	"github.com/soundlab/acoustics-go/internal/datastore"
	"github.com/soundlab/acoustics-go/internal/httpcontroller"
	"github.com/soundlab/acoustics-go/internal/logging"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the audio processing server",
		Long:  "Start serving the WebSocket audio pipeline and the recording catalog API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Server.Host, "host", viper.GetString("server.host"), "Address to listen on")
	cmd.Flags().StringVar(&settings.Server.Port, "port", viper.GetString("server.port"), "Port to listen on")
	cmd.Flags().StringVar(&settings.Output.RecordingsPath, "recordingspath", viper.GetString("output.recordingspath"), "Directory to store recordings in")
	cmd.Flags().StringVar(&settings.Output.SQLite.Path, "dbpath", viper.GetString("output.sqlite.path"), "Path of the recording catalog database")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// runServer opens the catalog, starts the HTTP server and blocks until a
// termination signal arrives, then shuts down gracefully.
func runServer(settings *conf.Settings) error {
	log := logging.ForService("serve")

	if err := os.MkdirAll(settings.Output.RecordingsPath, 0o755); err != nil {
		return fmt.Errorf("creating recordings directory: %w", err)
	}

	store := datastore.New(settings.Output.SQLite.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening recording catalog: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close recording catalog", "error", err)
		}
	}()

	server := httpcontroller.New(settings, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
