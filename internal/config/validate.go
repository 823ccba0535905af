package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks value ranges. Load keeps env values as given, so an out of
// range variable surfaces here instead of being replaced by a default.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("config %s: field is required", e.Field()))
		case "oneof":
			errs = append(errs, fmt.Errorf("config %s: must be one of [%s], got %v", e.Field(), e.Param(), e.Value()))
		default:
			errs = append(errs, fmt.Errorf("config %s: must satisfy %s=%s, got %v", e.Field(), e.Tag(), e.Param(), e.Value()))
		}
	}
	return errors.Join(errs...)
}
