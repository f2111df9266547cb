package contracts

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks across stages
var (
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrFetch         = errors.New("fetch failure")
)

// ConfigurationError reports an invalid or unsupported pipeline configuration.
// Field is the dotted path of the offending entry (e.g. "score.size_score.type").
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrConfiguration) match
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configf builds a ConfigurationError
func Configf(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing input file, directory or dataset
type NotFoundError struct {
	Resource string
	Path     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Path)
}

// Is makes errors.Is(err, ErrNotFound) match
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FetchFailure records one dataset period that could not be downloaded or parsed.
// Failures are collected and reported, never fatal to the whole fetch.
type FetchFailure struct {
	Dataset string `json:"dataset"`
	Period  string `json:"period"`
	URL     string `json:"url"`
	Err     error  `json:"-"`
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s period %s (%s): %v", e.Dataset, e.Period, e.URL, e.Err)
}

func (e *FetchFailure) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFetch) match
func (e *FetchFailure) Is(target error) bool {
	return target == ErrFetch
}
