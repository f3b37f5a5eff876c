package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/joshharrison/lineloom/internal/heuristic"
	"github.com/joshharrison/lineloom/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // config key, e.g. "balance.beat"
	Value   any
	Message string
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateBalance()...)
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateServer()...)
	if c.State.Save && c.State.Dir == "" {
		errs = append(errs, ValidationError{Field: "state.dir", Value: c.State.Dir, Message: "must not be empty when state.save is on"})
	}
	return errs
}

func (c *Config) validateBalance() []ValidationError {
	var errs []ValidationError
	b := c.Balance

	if b.Beat < 0 {
		errs = append(errs, ValidationError{Field: "balance.beat", Value: b.Beat, Message: "must be positive, or 0 to require it per run"})
	}
	if _, err := heuristic.New(b.Heuristic, ""); err != nil {
		errs = append(errs, ValidationError{
			Field:   "balance.heuristic",
			Value:   b.Heuristic,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(heuristic.Names(), ", ")),
		})
	}
	if _, err := heuristic.ParseTieBreak(b.TieBreak); err != nil {
		errs = append(errs, ValidationError{Field: "balance.tie_break", Value: b.TieBreak, Message: "must be max_time or min_time"})
	}
	if b.MaxRounds < 0 {
		errs = append(errs, ValidationError{Field: "balance.max_rounds", Value: b.MaxRounds, Message: "must be non-negative"})
	}
	return errs
}

func (c *Config) validateLogging() []ValidationError {
	if c.Logging.Level == "" || slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		return nil
	}
	return []ValidationError{{
		Field:   "logging.level",
		Value:   c.Logging.Level,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(logging.ValidLevels(), ", ")),
	}}
}

func (c *Config) validateServer() []ValidationError {
	var errs []ValidationError
	s := c.Server

	if s.Addr == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Value: s.Addr, Message: "must not be empty"})
	}
	if s.ReadTimeoutSeconds < 0 {
		errs = append(errs, ValidationError{Field: "server.read_timeout_seconds", Value: s.ReadTimeoutSeconds, Message: "must be non-negative"})
	}
	if s.WriteTimeoutSeconds < 0 {
		errs = append(errs, ValidationError{Field: "server.write_timeout_seconds", Value: s.WriteTimeoutSeconds, Message: "must be non-negative"})
	}
	if s.MaxBodyBytes <= 0 {
		errs = append(errs, ValidationError{Field: "server.max_body_bytes", Value: s.MaxBodyBytes, Message: "must be positive"})
	}
	return errs
}

// ErrBeatRequired is returned by Ready when no beat has been configured.
var ErrBeatRequired = errors.New("beat is required (set --beat or balance.beat)")

// Ready checks that the balance settings are complete enough to run.
func (b *BalanceConfig) Ready() error {
	if b.Beat <= 0 {
		return ErrBeatRequired
	}
	return nil
}
