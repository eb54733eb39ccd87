// Package model defines the data structures shared by the transformation engine.
package model

// Path represents a file system path.
type Path string

// PositionPolicy selects where randomized mutators splice synthetic statements
// into a block.
type PositionPolicy string

const (
	// PositionRandom picks a uniformly random insertion index.
	PositionRandom PositionPolicy = "random"
	// PositionTop inserts near the beginning of the block.
	PositionTop PositionPolicy = "top"
	// PositionMiddle inserts at the midpoint of the block.
	PositionMiddle PositionPolicy = "middle"
	// PositionBottom appends at the end of the block.
	PositionBottom PositionPolicy = "bottom"
)

// RecoverMode controls what the handler of an inserted recover wrapper does on
// the panicking path.
type RecoverMode string

const (
	// RecoverRepanic re-raises the recovered value, preserving failure behavior.
	RecoverRepanic RecoverMode = "repanic"
	// RecoverMask swallows the recovered value.
	RecoverMask RecoverMode = "mask"
)

// DropVarsMode selects how drop_vars degrades variable declarations.
type DropVarsMode string

const (
	// DropInitialization keeps the declaration but replaces its value.
	DropInitialization DropVarsMode = "initialization"
	// DropDeclaration removes the declaration entirely.
	DropDeclaration DropVarsMode = "declaration"
)

// Policy configures randomized and safety-bounded transformations for one run.
//
// A nil Seed means fresh randomness each run. When PerFunctionStable is set,
// every function derives its own generator from (seed, function name), so
// identical functions mutate identically across runs sharing a seed.
type Policy struct {
	Seed              *int64
	PerFunctionStable bool

	Position   PositionPolicy
	ProbInsert float64
	MinInserts int
	MaxInserts int

	MaxSwapsPerBlock int

	RecoverMode  RecoverMode
	DropVarsMode DropVarsMode

	// EnableStateMachine opts in to the experimental odometer-style loop
	// un-nesting. Off by default; see loop_flatten.
	EnableStateMachine bool
}

// DefaultPolicy returns the policy used when the caller does not override
// anything: deterministic-friendly bounds, one insertion per function, random
// positions.
func DefaultPolicy() Policy {
	return Policy{
		Position:         PositionRandom,
		ProbInsert:       1.0,
		MinInserts:       1,
		MaxInserts:       1,
		MaxSwapsPerBlock: 2,
		RecoverMode:      RecoverRepanic,
		DropVarsMode:     DropInitialization,
	}
}

// WithSeed returns a copy of the policy with a fixed seed.
func (p Policy) WithSeed(seed int64) Policy {
	p.Seed = &seed
	return p
}
