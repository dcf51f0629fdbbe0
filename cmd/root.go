package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundlab/acoustics-go/cmd/serve"
	"github.com/soundlab/acoustics-go/internal/buildinfo"
	"github.com/soundlab/acoustics-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "acoustics",
		Short:   "Acoustics-Go audio processing server",
		Version: buildinfo.Version,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(serve.Command(settings))

	return rootCmd
}

// setupFlags configures the global flags for the root command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVar(&settings.Debug, "debug", viper.GetBool("debug"), "Enable debug output")
}
