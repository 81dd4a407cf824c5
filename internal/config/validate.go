package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/ariel-frischer/releasekit/internal/runner"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidationError is a configuration problem, located either by line in
// the YAML file or by configuration key.
type ValidationError struct {
	FilePath string
	Line     int
	Field    string
	Message  string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.FilePath, e.Field, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
	}
}

// yaml.v3 syntax errors read "yaml: line N: <problem>".
var yamlLineError = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// validateYAMLSyntax reports syntax errors in data with the offending line.
// An empty document is valid.
func validateYAMLSyntax(path string, data []byte) error {
	var node yaml.Node
	err := yaml.Unmarshal(data, &node)
	if err == nil {
		return nil
	}

	ve := &ValidationError{FilePath: path, Message: err.Error()}
	if m := yamlLineError.FindStringSubmatch(err.Error()); m != nil {
		ve.Line, _ = strconv.Atoi(m[1])
		ve.Message = m[2]
	}
	return ve
}

var validate = newValidator()

// newValidator reports fields by their configuration key.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		return name
	})
	return v
}

// ValidateConfigValues checks struct constraints, then every template.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{FilePath: filePath, Field: fe.Field(), Message: describe(fe)}
		}
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}

	if cfg.CommandTimeout < 0 {
		return &ValidationError{FilePath: filePath, Field: "command_timeout", Message: "must not be negative"}
	}

	return validateTemplates(cfg, filePath)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	default:
		return fmt.Sprintf("fails %q", fe.Tag())
	}
}

// validateTemplates checks that every command template parses and only uses
// placeholders that will be available when it is expanded.
func validateTemplates(cfg *Configuration, filePath string) error {
	secrets := make([]string, 0, len(cfg.RequiredSecrets))
	for _, s := range cfg.RequiredSecrets {
		if strings.TrimSpace(s) == "" {
			return &ValidationError{FilePath: filePath, Field: "required_secrets", Message: "contains an empty name"}
		}
		secrets = append(secrets, s)
	}

	checks := []struct {
		field   string
		raw     string
		allowed []string
	}{
		{"build_command", cfg.BuildCommand, BuildPlaceholders},
		{"publish_command", cfg.PublishCommand, append(append([]string{}, PublishPlaceholders...), secrets...)},
		{"test_command", cfg.TestCommand, TestPlaceholders},
		{"fallback_test_command", cfg.FallbackTestCommand, TestPlaceholders},
	}

	for _, c := range checks {
		tmpl, err := runner.ParseTemplate(c.raw)
		if err != nil {
			return &ValidationError{FilePath: filePath, Field: c.field, Message: err.Error()}
		}
		if err := checkPlaceholders(filePath, c.field, tmpl.Placeholders(), c.allowed); err != nil {
			return err
		}
	}

	// The artifact pattern is a glob, not a command line.
	known := make(map[string]string, len(ArtifactPlaceholders))
	for _, name := range ArtifactPlaceholders {
		known[name] = name
	}
	_, unknown := runner.Substitute(cfg.ArtifactGlob, known)
	return checkPlaceholders(filePath, "artifact_glob", unknown, ArtifactPlaceholders)
}

func checkPlaceholders(filePath, field string, used, allowed []string) error {
	for _, name := range used {
		if !contains(allowed, name) {
			return &ValidationError{
				FilePath: filePath,
				Field:    field,
				Message:  fmt.Sprintf("unknown placeholder {{%s}} (available: %s)", name, strings.Join(allowed, ", ")),
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
