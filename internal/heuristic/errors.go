package heuristic

import (
	"errors"
	"fmt"
)

var (
	// ErrInfeasibleTask is returned when a task is longer than the beat.
	ErrInfeasibleTask = errors.New("infeasible task")

	// ErrInvalidBeat is returned when the beat is not positive.
	ErrInvalidBeat = errors.New("beat must be positive")

	// ErrUnknownHeuristic is returned by New for an unregistered name.
	ErrUnknownHeuristic = errors.New("unknown heuristic")

	// ErrUnknownTieBreak is returned for a tie-break other than max_time or min_time.
	ErrUnknownTieBreak = errors.New("unknown tie-break policy")

	// ErrStalled is returned if a freshly opened station cannot take any task.
	ErrStalled = errors.New("assignment stalled")
)

// InfeasibleTaskError names the task whose duration exceeds the beat.
type InfeasibleTaskError struct {
	TaskID   string
	Duration int
	Beat     int
}

func (e *InfeasibleTaskError) Error() string {
	return fmt.Sprintf("task %s: duration %d exceeds beat %d", e.TaskID, e.Duration, e.Beat)
}

func (e *InfeasibleTaskError) Unwrap() error { return ErrInfeasibleTask }
