package config

import "fmt"

// ConfigurationError indicates that an instance can't be collected from due
// to missing or invalid settings.
//
type ConfigurationError struct {
	Key    string
	Reason string

	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration '%s': %s: %v", e.Key, e.Reason, e.Err)
	}

	return fmt.Sprintf("configuration '%s': %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func missing(key string) error {
	return &ConfigurationError{Key: key, Reason: "required"}
}
