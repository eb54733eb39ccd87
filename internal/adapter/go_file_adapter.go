// Package adapter contains parsing and filesystem adapters for the engine.
package adapter

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
)

// GoFileAdapter encapsulates Go-specific parsing and printing so the domain
// layer can focus on transformation rules while delegating toolchain details
// to an infrastructure component.
type GoFileAdapter interface {
	// Parse builds an AST using the provided file set and source bytes.
	// Comments are kept so comment-level transformations can see them.
	Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// Format serializes an AST back to source text.
	Format(fileSet *token.FileSet, file *ast.File) (string, error)
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser
// and go/format.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	return parser.ParseFile(fileSet, filename, src, parser.ParseComments)
}

// Format prints the tree back to source text.
func (a *LocalGoFileAdapter) Format(fileSet *token.FileSet, file *ast.File) (string, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, fileSet, file); err != nil {
		return "", err
	}

	return buf.String(), nil
}
