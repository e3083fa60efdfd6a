package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their TOML keys.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return c.validatePaths()
}

func describeFieldError(fe validator.FieldError) string {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must be set", key)
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", key)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", key, fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", key, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range: %v", key, fe.Value())
	}
	return fmt.Sprintf("%s failed the %q check", key, fe.Tag())
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputFile == c.Paths.LabelMapFile {
		return errors.New("paths.label_map_file must differ from paths.output_file")
	}
	if c.Paths.ImageDir == c.Paths.OutputFile || c.Paths.AnnotationDir == c.Paths.OutputFile {
		return errors.New("paths.output_file must not be an input directory")
	}
	return nil
}
