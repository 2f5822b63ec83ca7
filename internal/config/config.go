// Package config provides configuration management for slsabout.
package config

// Config is the root configuration structure for slsabout.
type Config struct {
	// Descriptor is the path of the service descriptor.
	Descriptor string `mapstructure:"descriptor"`

	// Stage overrides the descriptor's provider stage.
	Stage string `mapstructure:"stage"`

	// Output is where the patched descriptor is written, relative to the service path.
	Output string `mapstructure:"output"`

	// Template overrides the built-in about handler template.
	Template string `mapstructure:"template"`

	Package PackageConfig `mapstructure:"package"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PackageConfig holds deployment bundle settings.
type PackageConfig struct {
	// Write bundles during the package command
	Enabled bool `mapstructure:"enabled"`

	// Bundle directory, relative to the service path
	Dir string `mapstructure:"dir"`
}

// MetricsConfig holds build metrics settings.
type MetricsConfig struct {
	// Textfile receives the build metrics in the Prometheus text format. Empty disables.
	Textfile string `mapstructure:"textfile"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Log format (json, console)
	Format string `mapstructure:"format"`
}
