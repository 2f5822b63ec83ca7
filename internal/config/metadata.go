package config

// ConfigFieldType represents the type of a configuration field.
type ConfigFieldType string

const (
	FieldTypeString ConfigFieldType = "string"
	FieldTypeBool   ConfigFieldType = "bool"
)

// ConfigFieldMeta holds metadata about a configuration field.
type ConfigFieldMeta struct {
	Key         string          `json:"key"`
	Type        ConfigFieldType `json:"type"`
	Description string          `json:"description,omitempty"`
	Default     any             `json:"default"`
	Current     any             `json:"current"`
	Options     []string        `json:"options,omitempty"`
}

// Describe lists every configuration key with its default and current value.
func Describe(current *Config) []ConfigFieldMeta {
	defaults := Default()

	return []ConfigFieldMeta{
		{
			Key:         "descriptor",
			Type:        FieldTypeString,
			Description: "Service descriptor to read",
			Default:     defaults.Descriptor,
			Current:     current.Descriptor,
		},
		{
			Key:         "stage",
			Type:        FieldTypeString,
			Description: "Stage used in the default function name (falls back to provider.stage, then dev)",
			Default:     defaults.Stage,
			Current:     current.Stage,
		},
		{
			Key:         "output",
			Type:        FieldTypeString,
			Description: "Patched descriptor path, relative to the service directory",
			Default:     defaults.Output,
			Current:     current.Output,
		},
		{
			Key:         "template",
			Type:        FieldTypeString,
			Description: "About handler template (empty uses the built-in template)",
			Default:     defaults.Template,
			Current:     current.Template,
		},
		{
			Key:         "package.enabled",
			Type:        FieldTypeBool,
			Description: "Write deployment bundles during package",
			Default:     defaults.Package.Enabled,
			Current:     current.Package.Enabled,
		},
		{
			Key:         "package.dir",
			Type:        FieldTypeString,
			Description: "Bundle directory, relative to the service directory",
			Default:     defaults.Package.Dir,
			Current:     current.Package.Dir,
		},
		{
			Key:         "metrics.textfile",
			Type:        FieldTypeString,
			Description: "Prometheus textfile for build metrics (empty disables)",
			Default:     defaults.Metrics.Textfile,
			Current:     current.Metrics.Textfile,
		},
		{
			Key:         "logging.level",
			Type:        FieldTypeString,
			Description: "Log level",
			Default:     defaults.Logging.Level,
			Current:     current.Logging.Level,
			Options:     []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"},
		},
		{
			Key:         "logging.format",
			Type:        FieldTypeString,
			Description: "Log output format",
			Default:     defaults.Logging.Format,
			Current:     current.Logging.Format,
			Options:     []string{"console", "json"},
		},
	}
}
