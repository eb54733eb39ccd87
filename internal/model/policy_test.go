package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	assert.Nil(t, p.Seed)
	assert.Equal(t, PositionRandom, p.Position)
	assert.Equal(t, 1.0, p.ProbInsert)
	assert.Equal(t, RecoverRepanic, p.RecoverMode)
	assert.Equal(t, DropInitialization, p.DropVarsMode)
	assert.False(t, p.EnableStateMachine)
}

func TestWithSeedCopies(t *testing.T) {
	base := DefaultPolicy()
	seeded := base.WithSeed(7)

	require.NotNil(t, seeded.Seed)
	assert.Equal(t, int64(7), *seeded.Seed)
	assert.Nil(t, base.Seed, "the original policy must stay unseeded")
}

func TestReportSkip(t *testing.T) {
	r := NewReport()
	r.Skip("loop_flatten", 12, "body contains control transfer")

	require.Len(t, r.Skips, 1)
	assert.Equal(t, "loop_flatten", r.Skips[0].Transform)
	assert.Equal(t, 12, r.Skips[0].Line)
}
