// Package transforms implements the tree-level and text-level source
// transformations behind the registry names.
package transforms

import (
	"fmt"
	"go/ast"
	"go/token"
	"hash/fnv"
	"math/rand"
	"time"

	m "github.com/wibhim/codemorph/internal/model"
)

// Transformer rewrites the tree in place and reports whether it changed the
// tree's structure. A Transformer must confine itself to the tree: no I/O, no
// shared state beyond the Context.
type Transformer interface {
	Name() string
	Apply(file *ast.File, ctx *Context) (bool, error)
}

// TextTransformer rewrites serialized source text. Text transformers run
// strictly after tree-level ones and after final serialization; their output
// is never re-parsed.
type TextTransformer interface {
	Name() string
	ApplyText(src string) (string, bool)
}

// Context carries the state a transformation may consult during one pipeline
// call: positions, the mutation policy, the run report, and the random
// source. The tree it is used against is exclusively owned by that call.
type Context struct {
	Fset   *token.FileSet
	Policy m.Policy
	Report *m.Report

	rng *rand.Rand
}

// NewContext builds a Context for one pipeline call. A nil policy seed means
// fresh randomness each run.
func NewContext(fset *token.FileSet, policy m.Policy, report *m.Report) *Context {
	seed := time.Now().UnixNano()
	if policy.Seed != nil {
		seed = *policy.Seed
	}

	if report == nil {
		report = m.NewReport()
	}

	return &Context{
		Fset:   fset,
		Policy: policy,
		Report: report,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Rand returns the run-wide generator. Not safe to share across concurrent
// callers; concurrent batch workers should rely on per-function generators.
func (c *Context) Rand() *rand.Rand {
	return c.rng
}

// RandFor returns the generator to use inside the named function. With
// PerFunctionStable set, the generator is derived by hashing (seed, name), so
// identical functions mutate identically across runs sharing a seed.
func (c *Context) RandFor(funcName string) *rand.Rand {
	if !c.Policy.PerFunctionStable {
		return c.rng
	}

	base := "none"
	if c.Policy.Seed != nil {
		base = fmt.Sprintf("%d", *c.Policy.Seed)
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(base + ":" + funcName))

	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// Line resolves a position to its line number for skip reasons and logs.
func (c *Context) Line(pos token.Pos) int {
	if c.Fset == nil || !pos.IsValid() {
		return 0
	}

	return c.Fset.Position(pos).Line
}
