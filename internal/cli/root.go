package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Financial-Times/serverless-plugin-about/internal/config"
)

// version is set at build time via -ldflags.
var version = "0.1.0-dev"

var (
	cfgFile string
	verbose bool

	// cfg is the configuration loaded before every command runs.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "slsabout",
	Short: "Generate an about endpoint for a serverless service",
	Long: `slsabout scans the http events of a serverless service for about annotations,
generates a handler that serves them as JSON and registers it as an extra function
of the service.

Package a service:
  slsabout package --stage prod

Run a single lifecycle phase from another tool:
  slsabout hook after:package:initialize`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(config.LoadOptions{
			ConfigFile: cfgFile,
			Viper:      viper.GetViper(),
		})
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogging(&cfg.Logging)

		if used := viper.ConfigFileUsed(); used != "" {
			log.Debug().Str("file", used).Msg("Using config file")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./slsabout.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.StringP("descriptor", "d", config.DefaultDescriptor, "service descriptor")
	flags.StringP("stage", "s", "", "stage used in the default function name")
	flags.String("template", "", "about handler template (default is the built-in template)")

	_ = viper.BindPFlag("descriptor", flags.Lookup("descriptor"))
	_ = viper.BindPFlag("stage", flags.Lookup("stage"))
	_ = viper.BindPFlag("template", flags.Lookup("template"))
}

// setupLogging configures zerolog from the logging config. --verbose forces debug.
func setupLogging(lc *config.LoggingConfig) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if lc.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// Version returns the version string.
func Version() string {
	return fmt.Sprintf("slsabout version %s", version)
}
