package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("logformat", validateLogFormat)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateLogFormat(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "json", "console":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Engine.MinEdge >= cfg.Engine.MaxEdge {
		return fmt.Errorf("engine min_edge (%v) must be below max_edge (%v)", cfg.Engine.MinEdge, cfg.Engine.MaxEdge)
	}

	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable error
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()

		switch fieldError.Tag() {
		case "required":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, fieldError.Tag())
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s=%s violated, got '%v'\n",
				field, fieldError.Tag(), fieldError.Param(), fieldError.Value())
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "logformat":
			fmt.Fprintf(&b, "- Field '%s' must be one of: json, console\n", field)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, fieldError.Tag())
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
