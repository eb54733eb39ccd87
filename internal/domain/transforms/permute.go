package transforms

import (
	"go/ast"
	"log/slog"
	"math/rand"
)

// PermuteStatements reorders independent statements inside basic blocks to
// produce structurally different, equivalent variants.
//
// Two statements may swap only when neither reads what the other writes and
// their write sets are disjoint (no RAW/WAR/WAW hazard), and both are
// classified pure. Swaps never cross block boundaries; a leading `_ = "..."`
// marker stays pinned at index 0.
type PermuteStatements struct{}

// Name implements Transformer.
func (PermuteStatements) Name() string { return "permute_statement" }

// Apply implements Transformer.
func (t PermuteStatements) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := rewriteBlocks(file, func(list []ast.Stmt, funcName string) ([]ast.Stmt, bool) {
		return t.permuteBlock(list, ctx, ctx.RandFor(funcName))
	})

	return changed, nil
}

func (t PermuteStatements) permuteBlock(list []ast.Stmt, ctx *Context, rng *rand.Rand) ([]ast.Stmt, bool) {
	start := blockStart(list)

	var idxs []int

	for i := start; i < len(list); i++ {
		if stmtPure(list[i]) {
			idxs = append(idxs, i)
		}
	}

	if len(idxs) < 2 {
		return list, false
	}

	// Enumerate candidate i<j pairs and shuffle them so repeated runs with
	// the same seed attempt the same sequence.
	type pair struct{ i, j int }

	var pairs []pair

	for n, i := range idxs {
		for _, j := range idxs[n+1:] {
			pairs = append(pairs, pair{i, j})
		}
	}

	rng.Shuffle(len(pairs), func(a, b int) {
		pairs[a], pairs[b] = pairs[b], pairs[a]
	})

	newList := make([]ast.Stmt, len(list))
	copy(newList, list)

	// Prior swaps move statements around, so candidate indices are
	// re-resolved by node identity at attempt time.
	currentPos := func(old int) int {
		for k, s := range newList {
			if s == list[old] {
				return k
			}
		}

		return -1
	}

	swaps := 0
	maxSwaps := ctx.Policy.MaxSwapsPerBlock

	for _, p := range pairs {
		if swaps >= maxSwaps {
			break
		}

		i, j := currentPos(p.i), currentPos(p.j)
		if i < 0 || j < 0 || i == j {
			continue
		}

		if i > j {
			i, j = j, i
		}

		s1, s2 := newList[i], newList[j]

		// Re-analyze against the live block: earlier swaps change
		// adjacency, so the hazard check runs at attempt time.
		r1, w1, p1 := readWriteSets(s1)
		r2, w2, p2 := readWriteSets(s2)

		if !p1 || !p2 {
			continue
		}

		if intersects(r1, w2) || intersects(r2, w1) || intersects(w1, w2) {
			slog.Debug("permute: hazard, pair skipped", "i", i, "j", j)
			continue
		}

		// Both statements cross everything between them, so the swap also
		// needs each intermediate statement to be independent of both.
		blocked := false

		for k := i + 1; k < j; k++ {
			rk, wk, pk := readWriteSets(newList[k])
			if !pk {
				blocked = true
				break
			}

			if intersects(r1, wk) || intersects(rk, w1) || intersects(w1, wk) ||
				intersects(r2, wk) || intersects(rk, w2) || intersects(w2, wk) {
				blocked = true
				break
			}
		}

		if blocked {
			slog.Debug("permute: intermediate hazard, pair skipped", "i", i, "j", j)
			continue
		}

		newList[i], newList[j] = newList[j], newList[i]
		swaps++
	}

	return newList, swaps > 0
}
