package emissions

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL      = errors.New("invalid estimate URL")
	ErrInvalidResponse = errors.New("invalid response from estimate API")
	ErrDecoding        = errors.New("failed to decode estimate response")

	ErrInvalidUnit         = errors.New("invalid carbon unit")
	ErrNegativeValue       = errors.New("negative carbon value")
	ErrCalculationOverflow = errors.New("calculation overflow")
)

// InvalidResponseError is returned for a non-2xx status that has no fallback.
type InvalidResponseError struct {
	StatusCode int
	Body       string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("HTTP %d%s", e.StatusCode, statusHint(e.StatusCode))
}

// Is makes errors.Is(err, ErrInvalidResponse) true.
func (e *InvalidResponseError) Is(target error) bool {
	return target == ErrInvalidResponse
}

// DecodingError is returned when a 2xx body does not have the expected shape.
type DecodingError struct {
	Message string
}

func (e *DecodingError) Error() string {
	return "decoding error: " + e.Message
}

// Is makes errors.Is(err, ErrDecoding) true.
func (e *DecodingError) Is(target error) bool {
	return target == ErrDecoding
}

func statusHint(code int) string {
	switch code {
	case 400:
		return ": Bad Request - Check request format"
	case 401:
		return ": Unauthorized - Check your API key"
	case 404:
		return ": Not Found - Check API endpoint"
	default:
		return ""
	}
}
