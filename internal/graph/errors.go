package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidReference marks a predecessor id that is not in the task set.
	ErrInvalidReference = errors.New("invalid task reference")

	// ErrCyclicDependency marks a predecessor relation that contains a cycle.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrDuplicateTask marks two records sharing one id.
	ErrDuplicateTask = errors.New("duplicate task id")
)

// InvalidReferenceError names the task whose predecessor list points at a
// missing id.
type InvalidReferenceError struct {
	TaskID    string
	MissingID string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("task %s: predecessor %s does not exist", e.TaskID, e.MissingID)
}

func (e *InvalidReferenceError) Unwrap() error { return ErrInvalidReference }

// CyclicDependencyError carries the closed path of the detected cycle.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Cycle) == 0 {
		return "dependency cycle detected"
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }
