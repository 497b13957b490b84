package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for bad user input; the user can correct and resubmit.
	ErrValidation = errors.New("validation error")
	// ErrConfig is returned when the weather API credential is missing.
	ErrConfig = errors.New("configuration error")
	// ErrAPI is returned when an upstream endpoint answers with a non-2xx status.
	ErrAPI = errors.New("weather api error")
	// ErrNotFound is returned when geocoding succeeded but yielded no coordinates.
	ErrNotFound = errors.New("location not found")
	// ErrParse is returned for malformed or unexpected upstream payloads.
	ErrParse = errors.New("malformed weather response")
	// ErrPermissionDenied is returned when device location access is refused.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrLocationUnavailable is returned when the device location cannot be acquired.
	ErrLocationUnavailable = errors.New("location unavailable")
)

// Messages shown to the user. Some of them double as API fallbacks.
const (
	MsgEnterName        = "Please enter your name"
	MsgEnterZip         = "Please enter a zip code"
	MsgInvalidZip       = "Please enter a valid 5-digit zip code"
	MsgZipNotFound      = "Location not found for this zip code"
	MsgGeocodeFailed    = "Invalid zip code or API error"
	MsgWeatherFailed    = "Error fetching weather data"
	MsgMissingAPIKey    = "Weather API key is not configured"
	MsgMalformed        = "Received an unexpected response from the weather service"
	MsgLocationDenied   = "Location permission was denied"
	MsgLocationNotFound = "Unable to determine your current location"
)

// APIError carries the status and message of a failed upstream call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d): %s", ErrAPI, e.Status, e.Message)
}

// Unwrap lets errors.Is(err, ErrAPI) match.
func (e *APIError) Unwrap() error {
	return ErrAPI
}

// userError pairs a taxonomy sentinel with the text shown to the user.
type userError struct {
	kind error
	msg  string
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.kind }

// NewError returns an error matching kind under errors.Is whose user message is msg.
func NewError(kind error, msg string) error {
	return &userError{kind: kind, msg: msg}
}

// NewValidationError returns an ErrValidation carrying msg as its user message.
func NewValidationError(msg string) error {
	return NewError(ErrValidation, msg)
}

// UserMessage converts any lookup error into the single string shown on screen.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ue *userError
	if errors.As(err, &ue) {
		return ue.msg
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	switch {
	case errors.Is(err, ErrValidation):
		return MsgInvalidZip
	case errors.Is(err, ErrConfig):
		return MsgMissingAPIKey
	case errors.Is(err, ErrNotFound):
		return MsgZipNotFound
	case errors.Is(err, ErrParse):
		return MsgMalformed
	case errors.Is(err, ErrPermissionDenied):
		return MsgLocationDenied
	case errors.Is(err, ErrLocationUnavailable):
		return MsgLocationNotFound
	default:
		return MsgWeatherFailed
	}
}
