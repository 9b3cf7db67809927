package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their YAML names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ApplyEnv overrides config values from TIDAL_* environment variables.
// Variables that are not set leave the current value in place.
func ApplyEnv(config *ConfigData) error {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return fmt.Errorf("reading environment overrides: %w", err)
	}
	return nil
}

// Validate checks config against its struct tags and the cross-field rules
// the tags cannot express
func Validate(config *ConfigData) error {
	if err := validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", strings.TrimPrefix(fe.Namespace(), "ConfigData."), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(config.Station.TimeZone); err != nil {
		return fmt.Errorf("config validation failed: station.timezone: %w", err)
	}
	return nil
}
