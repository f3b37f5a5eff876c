package improve

import (
	"github.com/joshharrison/lineloom/internal/line"
	"github.com/joshharrison/lineloom/internal/logging"
)

// DefaultMaxRounds caps a single Run.
const DefaultMaxRounds = 10000

// Move is one applied candidate, kept for the audit log.
type Move struct {
	Round        int     `json:"round"`
	Kind         Kind    `json:"kind"`
	Task         string  `json:"task"`
	Partner      string  `json:"partner,omitempty"`
	From         int     `json:"from"`
	To           int     `json:"to"`
	ExpectedGain float64 `json:"expected_gain"`
	LoadsAfter   []int   `json:"loads_after"`
}

// Options tunes Run.
type Options struct {
	// MaxRounds stops the search after this many applied moves. Zero means
	// DefaultMaxRounds.
	MaxRounds int
	Logger    *logging.Logger
}

// Result reports what Run did.
type Result struct {
	Moves     []Move `json:"moves"`
	Rounds    int    `json:"rounds"`
	Converged bool   `json:"converged"`
}

// Run applies the best candidate of each round to l until no candidate is
// left or the round cap is hit. l must be a complete, feasible layout.
func Run(l *line.Layout, opts Options) (*Result, error) {
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	res := &Result{}
	for round := 1; round <= maxRounds; round++ {
		c, ok := Select(Generate(l))
		if !ok {
			res.Converged = true
			break
		}
		if err := Apply(l, c); err != nil {
			return res, err
		}

		m := Move{
			Round:        round,
			Kind:         c.Kind,
			Task:         c.Task,
			Partner:      c.Partner,
			From:         c.From,
			To:           c.To,
			ExpectedGain: c.ExpectedGain,
			LoadsAfter:   l.Loads(),
		}
		res.Moves = append(res.Moves, m)
		res.Rounds = round
		logger.Debug("applied move",
			"round", round,
			"kind", string(c.Kind),
			"task", c.Task,
			"partner", c.Partner,
			"from", c.From,
			"to", c.To,
			"expected_gain", c.ExpectedGain,
		)
	}

	if !res.Converged {
		// one more look: the cap may have landed exactly on the fixed point
		res.Converged = len(Generate(l)) == 0
		if !res.Converged {
			logger.Warn("improvement stopped at round cap", "max_rounds", maxRounds)
		}
	}
	return res, nil
}
