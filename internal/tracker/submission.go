package tracker

import (
	"context"
	"sync"
)

// SubmissionState is the state of one add-activity form.
type SubmissionState string

const (
	StateIdle     SubmissionState = "idle"
	StateInFlight SubmissionState = "in_flight"
	StateFailed   SubmissionState = "failed"
)

// SubmissionStatus is a snapshot of a submission.
type SubmissionStatus struct {
	State   SubmissionState `json:"state"`
	Message string          `json:"message,omitempty"`
}

// Submission guards a form against resubmission while an estimate is running.
//
//	idle|failed --Begin--> in_flight --Finish(nil)--> idle
//	                       in_flight --Finish(err)--> failed
//	                       in_flight --Cancel-------> idle
type Submission struct {
	mu        sync.Mutex
	state     SubmissionState
	message   string
	cancel    context.CancelFunc
	attempt   uint64
	cancelled bool
}

// NewSubmission returns an idle submission.
func NewSubmission() *Submission {
	return &Submission{state: StateIdle}
}

// Begin moves the submission in flight and returns a context that Cancel aborts.
// The returned attempt number must be passed to Finish.
func (s *Submission) Begin(ctx context.Context) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateInFlight {
		return nil, 0, ErrSubmissionInFlight
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.attempt++
	s.state = StateInFlight
	s.message = ""
	s.cancel = cancel
	s.cancelled = false
	return runCtx, s.attempt, nil
}

// Finish ends the attempt. It returns ErrSubmissionCancelled when the attempt
// was cancelled while in flight, in which case its result must be discarded.
func (s *Submission) Finish(attempt uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt != s.attempt || s.cancelled {
		return ErrSubmissionCancelled
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if err != nil {
		s.state = StateFailed
		s.message = UserMessage(err)
		return err
	}
	s.state = StateIdle
	s.message = ""
	return nil
}

// Cancel aborts an in-flight attempt. It reports whether there was one.
func (s *Submission) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInFlight {
		return false
	}
	s.cancel()
	s.cancel = nil
	s.cancelled = true
	s.state = StateIdle
	s.message = ""
	return true
}

// Status returns the current state and the last user-facing error message.
func (s *Submission) Status() SubmissionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SubmissionStatus{State: s.state, Message: s.message}
}

// Reject records an input error that was caught before any network call.
// It has no effect while an attempt is in flight.
func (s *Submission) Reject(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateInFlight {
		return
	}
	s.state = StateFailed
	s.message = UserMessage(err)
}
