package util

import (
	"errors"
	"fmt"
)

// Business error codes carried in the response envelope alongside the HTTP
// status. Kept numerically compatible with the legacy API.
const (
	CodeInvalidData           = 3 // malformed or unknown references
	CodeInvalidTimeInterval   = 4 // retake cooldown not elapsed
	CodeExceededTrialAttempts = 5 // trial attempt quota used up
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailRegistered     = errors.New("email already registered")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskNotActive       = errors.New("task is not active")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrPassingNotFound     = errors.New("passing not found")
	ErrAnswerNotFound      = errors.New("answer not found")
	ErrNotFreeAnswer       = errors.New("question does not take a free answer")
	ErrAnswerNotOwn        = errors.New("answer belongs to another user")
	ErrPassingNotOwn       = errors.New("passing belongs to another user")
	ErrQuestionNotInTask   = errors.New("question does not belong to the task")
	ErrOptionNotInQuestion = errors.New("answer option does not belong to the question")
	ErrPassingFinished     = errors.New("passing is already finished")
	ErrInvalidPoints       = errors.New("points outside the question score range")
)

// AdmissionError rejects the creation of a new passing.
type AdmissionError struct {
	Code             int     `json:"code"`
	Message          string  `json:"message"`
	RemainingSeconds float64 `json:"remainingSeconds,omitempty"`
}

func (e *AdmissionError) Error() string {
	return e.Message
}

// NewTrialQuotaError signals that the trial attempt quota for a task is
// used up.
func NewTrialQuotaError(taskID uint) *AdmissionError {
	return &AdmissionError{
		Code:    CodeExceededTrialAttempts,
		Message: fmt.Sprintf("exceeded the number of trial attempts in the task id: %d", taskID),
	}
}

// NewRetakeError signals that the retake cooldown has not elapsed yet;
// seconds is the remaining wait for client display.
func NewRetakeError(seconds float64) *AdmissionError {
	return &AdmissionError{
		Code:             CodeInvalidTimeInterval,
		Message:          fmt.Sprintf("try passing the test through %.0f seconds", seconds),
		RemainingSeconds: seconds,
	}
}
