package cfg

import "fmt"

// ConfigError reports missing or invalid settings. It is always detected
// before any network call is made.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
