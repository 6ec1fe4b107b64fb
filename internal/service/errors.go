package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a resolution failed.
type ErrorKind int

const (
	KindNetworkFailure ErrorKind = iota
	KindLocationPermissionDenied
	KindLocationUnavailable
	KindLocationNotFound
	KindInvalidQuery
)

var kindNames = map[ErrorKind]string{
	KindNetworkFailure:           "NetworkFailure",
	KindLocationPermissionDenied: "LocationPermissionDenied",
	KindLocationUnavailable:      "LocationUnavailable",
	KindLocationNotFound:         "LocationNotFound",
	KindInvalidQuery:             "InvalidQuery",
}

var userMessages = map[ErrorKind]string{
	KindNetworkFailure:           "Unable to reach the weather service. Please try again.",
	KindLocationPermissionDenied: "Permission to access location was denied.",
	KindLocationUnavailable:      "Error getting current location. Please try again.",
	KindLocationNotFound:         "City or location not found. Please enter a valid city name or check location.",
	KindInvalidQuery:             "Please enter a valid city name or coordinates.",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is; they match any ResolutionError of the same kind.
var (
	ErrLocationPermissionDenied = &ResolutionError{Kind: KindLocationPermissionDenied}
	ErrLocationUnavailable      = &ResolutionError{Kind: KindLocationUnavailable}
	ErrLocationNotFound         = &ResolutionError{Kind: KindLocationNotFound}
	ErrNetworkFailure           = &ResolutionError{Kind: KindNetworkFailure}
	ErrInvalidQuery             = &ResolutionError{Kind: KindInvalidQuery}
)

// ResolutionError is the only error type WeatherResolver returns.
// Message keeps the diagnostic text of the underlying failure.
type ResolutionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func newResolutionError(kind ErrorKind, err error) *ResolutionError {
	re := &ResolutionError{Kind: kind, Err: err}
	if err != nil {
		re.Message = err.Error()
	}
	return re
}

func (e *ResolutionError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	t, ok := target.(*ResolutionError)
	return ok && t.Kind == e.Kind
}

// UserMessage is the text the presentation layer shows for this failure.
func (e *ResolutionError) UserMessage() string {
	return userMessages[e.Kind]
}

// KindOf extracts the kind of a resolver error. Anything that is not a ResolutionError
// counts as a network failure.
func KindOf(err error) ErrorKind {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindNetworkFailure
}
