package model

import "fmt"

// ValidationError reports a request rejected before any computation.
type ValidationError struct {
	Expected int
	PPGLen   int
	ECGLen   int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("expected %d samples, got PPG:%d, ECG:%d", e.Expected, e.PPGLen, e.ECGLen)
}

// ComputationError wraps a failure inside normalization or the forward pass.
type ComputationError struct {
	Err error
}

func (e *ComputationError) Error() string {
	return "computation failed: " + e.Err.Error()
}

func (e *ComputationError) Unwrap() error { return e.Err }
