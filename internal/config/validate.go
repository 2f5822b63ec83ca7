package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Is makes ValidationErrors match ErrInvalidConfig.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

func Validate(cfg *Config) error {
	var errs ValidationErrors

	if strings.TrimSpace(cfg.Descriptor) == "" {
		errs = append(errs, ValidationError{
			Field:   "descriptor",
			Message: "is required",
		})
	}

	if strings.TrimSpace(cfg.Output) == "" {
		errs = append(errs, ValidationError{
			Field:   "output",
			Message: "is required",
		})
	}

	errs = append(errs, validatePackage(&cfg.Package)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePackage(cfg *PackageConfig) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(cfg.Dir) == "" {
		errs = append(errs, ValidationError{
			Field:   "package.dir",
			Message: "is required",
		})
		return errs
	}

	if filepath.IsAbs(cfg.Dir) || strings.HasPrefix(filepath.Clean(cfg.Dir), "..") {
		errs = append(errs, ValidationError{
			Field:   "package.dir",
			Message: "must be relative to the service directory",
		})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[cfg.Level] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: trace, debug, info, warn, error, fatal, panic",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Format] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'console'",
		})
	}

	return errs
}
