// Package conf loads and holds the application settings.
package conf

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Settings is the full application configuration.
type Settings struct {
	Debug bool `yaml:"debug"`

	Server ServerSettings `yaml:"server"`
	Audio  AudioSettings  `yaml:"audio"`
	Output OutputSettings `yaml:"output"`
	Log    LogSettings    `yaml:"log"`
}

// LogSettings configures the rotating server log file. An empty path
// disables file logging.
type LogSettings struct {
	Path string `yaml:"path"`
}

// ServerSettings configures the HTTP/WebSocket listener.
type ServerSettings struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"corsorigin"` // allowed frontend origin
}

// AudioSettings holds the pipeline defaults used until a session issues an
// init command.
type AudioSettings struct {
	SampleRate int `yaml:"samplerate"`
	Channels   int `yaml:"channels"`
	ChunkSize  int `yaml:"chunksize"`
}

// OutputSettings configures where recordings and the catalog database live.
type OutputSettings struct {
	RecordingsPath string         `yaml:"recordingspath"`
	SQLite         SQLiteSettings `yaml:"sqlite"`
}

// SQLiteSettings configures the catalog database.
type SQLiteSettings struct {
	Path string `yaml:"path"`
}

// Load reads the configuration file and environment variables into a
// Settings struct. A missing config file is not an error; defaults apply.
func Load() (*Settings, error) {
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := validateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}
	return settings, nil
}

// initViper initializes viper with default values and reads the
// configuration file if one exists.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/acoustics-go")

	viper.SetEnvPrefix("acoustics")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

func validateSettings(settings *Settings) error {
	if settings.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive, got %d", settings.Audio.SampleRate)
	}
	if settings.Audio.Channels != 1 && settings.Audio.Channels != 2 {
		return fmt.Errorf("audio channels must be 1 or 2, got %d", settings.Audio.Channels)
	}
	if settings.Audio.ChunkSize <= 0 {
		return fmt.Errorf("audio chunk size must be positive, got %d", settings.Audio.ChunkSize)
	}
	return nil
}
