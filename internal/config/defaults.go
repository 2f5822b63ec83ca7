package config

// Default configuration values.
const (
	DefaultDescriptor = "serverless.yml"
	DefaultOutput     = ".serverless/serverless.about.yml"
	DefaultPackageDir = ".serverless"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Descriptor: DefaultDescriptor,
		Output:     DefaultOutput,
		Package: PackageConfig{
			Enabled: true,
			Dir:     DefaultPackageDir,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
