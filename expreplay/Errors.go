package expreplay

import "errors"

var (
	errEmptyCache          = errors.New("no samples in cache")
	errInsufficientSamples = errors.New("insufficient samples in cache")
)

// ExpReplayError records an error that occurred during an operation on
// an experience replay buffer, as well as the operation that caused
// the error
type ExpReplayError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *ExpReplayError) Error() string {
	return "expreplay: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

// IsEmptyBuffer returns whether the argument error was caused by
// sampling from an empty experience replay buffer
func IsEmptyBuffer(err error) bool {
	var expErr *ExpReplayError
	if errors.As(err, &expErr) {
		return errors.Is(expErr.Err, errEmptyCache)
	}
	return false
}

// IsInsufficientSamples returns whether the argument error was caused
// by sampling from an experience replay buffer that does not yet hold
// enough samples to fill a batch
func IsInsufficientSamples(err error) bool {
	var expErr *ExpReplayError
	if errors.As(err, &expErr) {
		return errors.Is(expErr.Err, errInsufficientSamples)
	}
	return false
}
