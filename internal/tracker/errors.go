package tracker

import (
	"errors"

	"github.com/ukydev/carbon-tracker/internal/emissions"
)

var (
	ErrInvalidDistance     = errors.New("invalid distance")
	ErrInvalidMode         = errors.New("invalid transport mode")
	ErrInvalidColor        = errors.New("invalid color")
	ErrEntryNotFound       = errors.New("entry not found")
	ErrSubmissionInFlight  = errors.New("a submission is already in flight")
	ErrSubmissionCancelled = errors.New("submission cancelled")
)

// UserMessage maps an add-activity error to the one line shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidDistance):
		return "Please enter a valid number for distance."
	case errors.Is(err, ErrInvalidMode):
		return "Please choose car, air or rail."
	case errors.Is(err, ErrSubmissionInFlight):
		return "Already calculating, please wait."
	case errors.Is(err, ErrSubmissionCancelled):
		return "Cancelled."
	case errors.Is(err, emissions.ErrInvalidResponse):
		return "Invalid response from server. Check console logs for details."
	case errors.Is(err, emissions.ErrDecoding),
		errors.Is(err, emissions.ErrInvalidUnit),
		errors.Is(err, emissions.ErrNegativeValue),
		errors.Is(err, emissions.ErrCalculationOverflow):
		return "Error processing data. Check console for details."
	case errors.Is(err, emissions.ErrInvalidURL):
		return "Invalid request URL. Please try again."
	default:
		return "Failed to fetch emissions: " + err.Error()
	}
}
