package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// Every check and raw roll is logged at debug level with dice values,
// modifier breakdown, and total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source {
	return r.src
}

// Check resolves c and logs the full audit trail at debug level.
//
// Precondition: c.Die must be valid.
func (r *Roller) Check(c Check) Result {
	result := Resolve(c, r.src)
	r.logger.Debug("check resolved",
		zap.String("die", result.Die.String()),
		zap.String("mode", result.Mode.String()),
		zap.Ints("rolls", result.Rolls),
		zap.Int("kept", result.Kept),
		zap.String("modifiers", FormatModifiers(result.Modifiers)),
		zap.Int("total", result.Total),
		zap.Int("target", result.Target),
		zap.String("outcome", result.Outcome.String()),
		zap.Int("margin", result.Margin),
	)
	return result
}

// RollSum rolls count dice of type d, logging the values and sum.
//
// Precondition: d must be valid; count >= 1.
func (r *Roller) RollSum(d Die, count int) int {
	values := Roll(d, count, r.src)
	total := 0
	for _, v := range values {
		total += v
	}
	r.logger.Debug("dice roll",
		zap.String("die", d.String()),
		zap.Int("count", count),
		zap.Ints("rolls", values),
		zap.Int("total", total),
	)
	return total
}
