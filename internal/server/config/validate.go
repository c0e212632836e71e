package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the merged configuration. The first failing field is
// reported.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		if e.Param() != "" {
			return fmt.Errorf("config: %s fails %s=%s (value: %v)", e.Field(), e.Tag(), e.Param(), e.Value())
		}
		return fmt.Errorf("config: %s fails %s (value: %v)", e.Field(), e.Tag(), e.Value())
	}
	return fmt.Errorf("config: %w", err)
}
