package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryNames(t *testing.T) {
	names := []string{
		"boolean_exchange",
		"control_flow",
		"dead_code_insertion",
		"drop_comments",
		"drop_path",
		"drop_return",
		"drop_self",
		"drop_vars",
		"expression",
		"forget_indent",
		"function_extract",
		"if_invert_condition",
		"if_normalize",
		"log_statement",
		"loop_exchange",
		"loop_flatten",
		"loop_standard",
		"permute_statement",
		"remove_docstrings",
		"remove_else",
		"remove_exceptions",
		"remove_print",
		"reorder_condition",
		"replace_parentheses",
		"switch_to_if",
		"try_catch_insertion",
		"variable_naming",
	}

	for _, name := range names {
		desc, ok := Lookup(name)
		require.True(t, ok, "missing transformation %q", name)
		assert.Equal(t, name, desc.Name)
	}

	assert.Len(t, Infos(), len(names))
}

func TestRegistryDescriptorsAreConsistent(t *testing.T) {
	for _, info := range Infos() {
		desc, ok := Lookup(info.Name)
		require.True(t, ok)

		if desc.TextOnly {
			assert.NotNil(t, desc.MakeText, "%s must have a text constructor", info.Name)
			assert.Nil(t, desc.Make, "%s must not have a tree constructor", info.Name)
		} else {
			assert.NotNil(t, desc.Make, "%s must have a tree constructor", info.Name)
			assert.Nil(t, desc.MakeText, "%s must not have a text constructor", info.Name)
		}

		assert.NotEmpty(t, info.Summary, "%s needs a summary", info.Name)
	}
}

func TestInfosSorted(t *testing.T) {
	infos := Infos()

	assert.True(t, sort.SliceIsSorted(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	}))
}

func TestTextOnlyTransforms(t *testing.T) {
	for _, name := range []string{"replace_parentheses", "forget_indent"} {
		desc, ok := Lookup(name)
		require.True(t, ok)
		assert.True(t, desc.TextOnly, "%s is a text transformation", name)
	}
}
