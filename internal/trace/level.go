package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // only dumps on fatal runtime faults
	LevelPhase        // driver + pass boundaries
	LevelDetail       // per-file events
	LevelDebug        // everything including evaluator nodes
)

var levelNames = [...]string{
	LevelOff:    "off",
	LevelError:  "error",
	LevelPhase:  "phase",
	LevelDetail: "detail",
	LevelDebug:  "debug",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value to a Level.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for l, n := range levelNames {
		if n == name {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// maxScope is the finest scope a level lets through.
func (l Level) maxScope() Scope {
	switch l {
	case LevelPhase:
		return ScopePass
	case LevelDetail:
		return ScopeFile
	case LevelDebug:
		return ScopeNode
	}
	return 0
}

// ShouldEmit reports whether events of scope pass at this level.
// LevelError stores nothing; it only enables the fatal-fault dump.
func (l Level) ShouldEmit(scope Scope) bool {
	return scope != 0 && scope <= l.maxScope()
}
