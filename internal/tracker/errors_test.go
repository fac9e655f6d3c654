package tracker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/carbon-tracker/internal/emissions"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid distance", fmt.Errorf("%w: %q", ErrInvalidDistance, "abc"), "Please enter a valid number for distance."},
		{"invalid response", &emissions.InvalidResponseError{StatusCode: 500}, "Invalid response from server. Check console logs for details."},
		{"decoding", &emissions.DecodingError{Message: "bad"}, "Error processing data. Check console for details."},
		{"unit", fmt.Errorf("unusable: %w", emissions.ErrInvalidUnit), "Error processing data. Check console for details."},
		{"invalid url", emissions.ErrInvalidURL, "Invalid request URL. Please try again."},
		{"in flight", ErrSubmissionInFlight, "Already calculating, please wait."},
		{"other", errors.New("network is unreachable"), "Failed to fetch emissions: network is unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
