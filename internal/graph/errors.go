package graph

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by gtn matches exactly one of these
// under errors.Is.
var (
	ErrShape          = errors.New("shape error")
	ErrNoGradient     = errors.New("no gradient")
	ErrDivergentScore = errors.New("divergent score")
	ErrLabel          = errors.New("label error")
)

// ShapeError reports structurally invalid input: bad node or arc indices,
// mismatched weight or gradient lengths, non-scalar operands, epsilon cycles.
type ShapeError struct {
	Op      string // Operation that rejected the input
	Details string
}

// Error implements the error interface.
func (e *ShapeError) Error() string { return format(e.Op, ErrShape, e.Details) }

// Is reports whether target is ErrShape.
func (e *ShapeError) Is(target error) bool { return target == ErrShape }

// NoGradientError reports a gradient read on a graph that has none.
type NoGradientError struct {
	Op      string
	Details string
}

// Error implements the error interface.
func (e *NoGradientError) Error() string { return format(e.Op, ErrNoGradient, e.Details) }

// Is reports whether target is ErrNoGradient.
func (e *NoGradientError) Is(target error) bool { return target == ErrNoGradient }

// DivergentScoreError reports a score that does not converge, typically a
// cycle whose total weight is positive.
type DivergentScoreError struct {
	Op      string
	Details string
}

// Error implements the error interface.
func (e *DivergentScoreError) Error() string { return format(e.Op, ErrDivergentScore, e.Details) }

// Is reports whether target is ErrDivergentScore.
func (e *DivergentScoreError) Is(target error) bool { return target == ErrDivergentScore }

// LabelError reports an invalid label or a transducer where an acceptor is
// required.
type LabelError struct {
	Op      string
	Details string
}

// Error implements the error interface.
func (e *LabelError) Error() string { return format(e.Op, ErrLabel, e.Details) }

// Is reports whether target is ErrLabel.
func (e *LabelError) Is(target error) bool { return target == ErrLabel }

func format(op string, kind error, details string) string {
	if op == "" {
		return fmt.Sprintf("%v: %s", kind, details)
	}
	return fmt.Sprintf("%s: %v: %s", op, kind, details)
}

// NewShapeError builds a ShapeError for op.
func NewShapeError(op, msg string, args ...any) error {
	return newShapeError(op, msg, args...)
}

// NewDivergentScoreError builds a DivergentScoreError for op.
func NewDivergentScoreError(op, msg string, args ...any) error {
	return &DivergentScoreError{Op: op, Details: fmt.Sprintf(msg, args...)}
}

// NewLabelError builds a LabelError for op.
func NewLabelError(op, msg string, args ...any) error {
	return newLabelError(op, msg, args...)
}

func newShapeError(op, msg string, args ...any) error {
	return &ShapeError{Op: op, Details: fmt.Sprintf(msg, args...)}
}

func newLabelError(op, msg string, args ...any) error {
	return &LabelError{Op: op, Details: fmt.Sprintf(msg, args...)}
}

func newNoGradientError(op, msg string, args ...any) error {
	return &NoGradientError{Op: op, Details: fmt.Sprintf(msg, args...)}
}

// NewNoGradientError builds a NoGradientError for op.
func NewNoGradientError(op, msg string, args ...any) error {
	return newNoGradientError(op, msg, args...)
}
