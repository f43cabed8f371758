// Package regexcheck judges regular expression patterns for catastrophic
// backtracking risk.
//
// The heuristic is star height: a pattern containing an unbounded repetition
// nested inside another unbounded repetition, like (a+)+ or (a|aa)*b, can
// force exponential backtracking in a backtracking engine. A large total
// repetition count is rejected for the same reason.
package regexcheck

import "regexp/syntax"

// MaxRepetitions bounds the number of repetition operators tolerated in one
// pattern before it is considered unsafe regardless of nesting.
const MaxRepetitions = 25

// Verdict is the checker's outcome for one pattern.
type Verdict struct {
	Safe bool
	// StarHeight is the deepest nesting of unbounded repetitions found.
	StarHeight int
	// Repetitions is the total count of repetition operators.
	Repetitions int
}

// Check parses pattern and returns its safety verdict. Patterns that Go's
// regexp syntax cannot parse are reported safe: the checker refuses to guess
// about constructs it cannot analyze.
func Check(pattern string) Verdict {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return Verdict{Safe: true}
	}
	height := starHeight(re, 0)
	reps := countRepetitions(re)
	return Verdict{
		Safe:        height < 2 && reps <= MaxRepetitions,
		StarHeight:  height,
		Repetitions: reps,
	}
}

// starHeight returns the maximum nesting depth of unbounded repetitions.
func starHeight(re *syntax.Regexp, depth int) int {
	current := depth
	if isUnboundedRepeat(re) {
		current++
	}
	max := current
	for _, sub := range re.Sub {
		if h := starHeight(sub, current); h > max {
			max = h
		}
	}
	return max
}

func isUnboundedRepeat(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus:
		return true
	case syntax.OpRepeat:
		return re.Max < 0
	}
	return false
}

func countRepetitions(re *syntax.Regexp) int {
	count := 0
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		count++
	}
	for _, sub := range re.Sub {
		count += countRepetitions(sub)
	}
	return count
}
