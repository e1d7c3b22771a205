package findata

import (
	"errors"
	"fmt"
)

// ErrInvalidDomain reports an unrecognized domain tag.
var ErrInvalidDomain = errors.New("invalid domain")

// MissingParameterError reports a domain-required parameter that was not
// supplied.
type MissingParameterError struct {
	Domain Domain
	Param  string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("domain %s requires parameter %q", e.Domain, e.Param)
}

// InvalidParameterError reports a parameter whose value is illegal for the
// domain.
type InvalidParameterError struct {
	Domain Domain
	Param  string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("domain %s: parameter %s=%q invalid: %s", e.Domain, e.Param, e.Value, e.Reason)
}

// FetchError wraps an upstream transport or provider failure.
type FetchError struct {
	Domain Domain
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Domain, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
