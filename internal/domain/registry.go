// Package domain holds the transformation registry and the pipeline that
// applies registered transformations to source text.
package domain

import (
	"fmt"
	"sort"

	"github.com/wibhim/codemorph/internal/domain/transforms"
	"github.com/wibhim/codemorph/internal/model"
)

// Descriptor binds a registry name to its constructor. Exactly one of Make
// and MakeText is set; text transformations run after serialization and
// never see the tree.
type Descriptor struct {
	Name     string
	TextOnly bool
	Summary  string

	Make     func() transforms.Transformer
	MakeText func() transforms.TextTransformer
}

// registry is the closed set of known transformations. Registration happens
// here and nowhere else; the set cannot grow at runtime.
var registry = map[string]Descriptor{}

func register(d Descriptor) {
	if _, dup := registry[d.Name]; dup {
		panic(fmt.Sprintf("duplicate transformation name %q", d.Name))
	}

	if (d.Make == nil) == (d.MakeText == nil) {
		panic(fmt.Sprintf("transformation %q must have exactly one constructor", d.Name))
	}

	registry[d.Name] = d
}

func tree(name, summary string, make func() transforms.Transformer) {
	register(Descriptor{Name: name, Summary: summary, Make: make})
}

func text(name, summary string, make func() transforms.TextTransformer) {
	register(Descriptor{Name: name, TextOnly: true, Summary: summary, MakeText: make})
}

func init() {
	tree("control_flow", "convert branches to guard-clause style", func() transforms.Transformer { return transforms.ControlFlow{} })
	tree("variable_naming", "rename locals to a uniform var_N scheme", func() transforms.Transformer { return transforms.VariableNaming{} })
	tree("expression", "split compound expressions into named steps", func() transforms.Transformer { return transforms.ExpressionDecompose{} })
	tree("loop_standard", "interconvert range, counting, and condition loops", func() transforms.Transformer { return transforms.LoopStandard{} })
	tree("loop_exchange", "swap counting loops with condition-only form", func() transforms.Transformer { return transforms.LoopExchange{} })
	tree("loop_flatten", "collapse nested loop chains into a single loop", func() transforms.Transformer { return transforms.LoopFlatten{} })
	tree("function_extract", "hoist capture-free function literals to top level", func() transforms.Transformer { return transforms.FunctionExtract{} })
	tree("permute_statement", "reorder independent pure statements", func() transforms.Transformer { return transforms.PermuteStatements{} })
	tree("reorder_condition", "mirror comparisons and swap boolean operands", func() transforms.Transformer { return transforms.ReorderCondition{} })
	tree("if_normalize", "canonicalize conditional shape", func() transforms.Transformer { return transforms.IfNormalize{} })
	tree("if_invert_condition", "negate conditions and swap branches", func() transforms.Transformer { return transforms.IfInvertCondition{} })
	tree("switch_to_if", "lower expression switches to if chains", func() transforms.Transformer { return transforms.SwitchToIf{} })
	tree("boolean_exchange", "flip the value of one boolean local per function", func() transforms.Transformer { return transforms.BooleanExchange{} })
	tree("remove_else", "drop else branches", func() transforms.Transformer { return transforms.RemoveElse{} })
	tree("remove_exceptions", "strip panic and recover plumbing", func() transforms.Transformer { return transforms.RemoveExceptions{} })
	tree("remove_print", "delete console output statements", func() transforms.Transformer { return transforms.RemovePrint{} })
	tree("remove_docstrings", "remove documentation comments", func() transforms.Transformer { return transforms.RemoveDocstrings{} })
	tree("drop_comments", "remove all comments", func() transforms.Transformer { return transforms.DropComments{} })
	tree("drop_self", "detach methods from their receivers", func() transforms.Transformer { return transforms.DropSelf{} })
	tree("drop_path", "shorten import paths to their final segment", func() transforms.Transformer { return transforms.DropPath{} })
	tree("drop_return", "degrade return statements", func() transforms.Transformer { return transforms.DropReturn{} })
	tree("drop_vars", "degrade local variable declarations", func() transforms.Transformer { return transforms.DropVars{} })
	tree("log_statement", "insert a tracing print per function", func() transforms.Transformer { return transforms.LogStatement{} })
	tree("dead_code_insertion", "plant unreachable statements", func() transforms.Transformer { return transforms.DeadCodeInsertion{} })
	tree("try_catch_insertion", "wrap a statement in a recover guard", func() transforms.Transformer { return transforms.TryCatchInsertion{} })

	text("replace_parentheses", "strip parentheses from the serialized text", func() transforms.TextTransformer { return transforms.ReplaceParentheses{} })
	text("forget_indent", "flatten leading whitespace in the serialized text", func() transforms.TextTransformer { return transforms.ForgetIndent{} })
}

// Lookup returns the descriptor registered under name.
func Lookup(name string) (Descriptor, bool) {
	d, ok := registry[name]
	return d, ok
}

// Infos lists every registered transformation, sorted by name.
func Infos() []model.TransformInfo {
	infos := make([]model.TransformInfo, 0, len(registry))

	for _, d := range registry {
		infos = append(infos, model.TransformInfo{
			Name:     d.Name,
			TextOnly: d.TextOnly,
			Summary:  d.Summary,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}
