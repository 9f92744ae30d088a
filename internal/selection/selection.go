// Package selection parses operator clip-range expressions.
//
// An expression is a comma-separated list of 1-based clip indices and
// inclusive ranges, e.g. "1,3-5". Malformed tokens are skipped rather
// than rejected so a sloppy expression never aborts a run; an empty
// expression selects every clip.
package selection

import (
	"strconv"
	"strings"
)

// Clips is an inclusion predicate over 1-based clip indices.
type Clips struct {
	all     bool
	include map[int]struct{}
}

// All reports whether the selection includes every clip.
func (c Clips) All() bool {
	return c.all
}

// Includes reports whether the 1-based clip index is selected.
func (c Clips) Includes(index int) bool {
	if c.all {
		return true
	}
	_, ok := c.include[index]
	return ok
}

// Count returns the number of explicitly selected clips, or 0 for a
// select-all.
func (c Clips) Count() int {
	if c.all {
		return 0
	}
	return len(c.include)
}

// Parse builds a selection from an operator expression.
func Parse(expression string) Clips {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return Clips{all: true}
	}

	include := make(map[int]struct{})
	for _, token := range strings.Split(expression, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		lo, hi, ok := parseToken(token)
		if !ok {
			continue
		}
		for i := lo; i <= hi; i++ {
			include[i] = struct{}{}
		}
	}
	return Clips{include: include}
}

// parseToken accepts "N" or "lo-hi"; anything else, including a missing
// bound, reports false.
func parseToken(token string) (int, int, bool) {
	if !strings.Contains(token, "-") {
		value, err := strconv.Atoi(token)
		if err != nil || value < 1 {
			return 0, 0, false
		}
		return value, value, true
	}

	parts := strings.SplitN(token, "-", 2)
	lo, loErr := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, hiErr := strconv.Atoi(strings.TrimSpace(parts[1]))
	if loErr != nil || hiErr != nil || lo < 1 || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}
