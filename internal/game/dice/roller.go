package dice

import "go.uber.org/zap"

// Roller wraps a Source and a logger so every draw leaves a debug-level audit
// record with the expression, the raw dice, and the total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a logged Roller.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source exposes the underlying randomness source.
func (r *Roller) Source() Source { return r.src }

// Roll evaluates expr and logs the result.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr, rolls it, and logs the result.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Check performs a logged percentage check.
//
// Precondition: 0 <= chance <= 100.
func (r *Roller) Check(chance float64) bool {
	roll := D100(r.src)
	ok := float64(roll) <= chance
	r.logger.Debug("percent check",
		zap.Float64("chance", chance),
		zap.Int("roll", roll),
		zap.Bool("success", ok),
	)
	return ok
}
