package conf

import "github.com/spf13/viper"

// setDefaultConfig sets the default values for each configuration
// parameter. Any of them can be overridden by the config file or by
// ACOUSTICS_* environment variables.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.corsorigin", "http://localhost:3000")

	viper.SetDefault("audio.samplerate", 44100)
	viper.SetDefault("audio.channels", 2)
	viper.SetDefault("audio.chunksize", 1024)

	viper.SetDefault("output.recordingspath", "recordings_data")
	viper.SetDefault("output.sqlite.path", "data/acoustics.db")

	viper.SetDefault("log.path", "logs/acoustics.log")
}
