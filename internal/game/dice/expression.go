package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a parsed damage expression ready to be rolled.
//
// Invariant after a successful Parse: Count >= 1, Sides >= 2.
type Expression struct {
	Raw      string // original input, e.g. "2d4+5"
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier, may be negative
}

// Parse parses a damage expression of the form "d6", "2d4", "2d4+5", or "3d6-1".
//
// Precondition: expr must be non-empty.
// Postcondition: Returns an Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	if expr == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	raw := expr
	s := strings.ToLower(strings.TrimSpace(expr))

	dIdx := strings.Index(s, "d")
	if dIdx < 0 {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", raw)
	}

	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
		if n < 1 {
			return Expression{}, fmt.Errorf("dice: die count in %q must be >= 1", raw)
		}
		count = n
	}

	rest := s[dIdx+1:]

	// Locate a modifier sign past position 0 so a bare sides number parses clean.
	modIdx := -1
	for i := 1; i < len(rest); i++ {
		if rest[i] == '+' || rest[i] == '-' {
			modIdx = i
			break
		}
	}

	sidesStr := rest
	modStr := ""
	if modIdx >= 0 {
		sidesStr = rest[:modIdx]
		modStr = rest[modIdx:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: die sides in %q must be >= 2", raw)
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	return Expression{Raw: raw, Count: count, Sides: sides, Modifier: modifier}, nil
}

// MustParse parses expr and panics on error. For package-level constants.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for " + expr + ": " + err.Error())
	}
	return e
}

// RollResult holds the audit trail of one evaluated expression.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders an audit line like "2d4+5 = [3 1] +5 = 9".
func (r RollResult) String() string {
	return fmt.Sprintf("%s = %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Roll evaluates expr with src.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count and
// result.Total() == sum(result.Dice) + expr.Modifier.
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
}

// RollExpr parses and rolls expr in one call.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src), nil
}
