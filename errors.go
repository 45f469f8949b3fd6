package flagx

import (
	"errors"
	"fmt"

	"github.com/OrlandoBitencourt/flagx/internal/domain"
)

// ConfigError indicates invalid configuration. It is the only error
// returned by New; flag evaluation never fails.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error [%s]: %s", e.Field, e.Message)
}

// newConfigError reports err as a ConfigError, keeping the field of a
// validation failure and falling back to field otherwise.
func newConfigError(field string, err error) *ConfigError {
	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return &ConfigError{Field: field + "." + valErr.Field, Message: valErr.Message}
	}
	return &ConfigError{Field: field, Message: err.Error()}
}
