package model

import "fmt"

// ParseError reports that the input text does not parse. The pipeline returns
// the original text unchanged alongside it.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransformationError reports that one transformation raised while visiting
// the tree. The pipeline catches it, discards that step's effect, and
// continues.
type TransformationError struct {
	Name string
	Err  error
}

func (e *TransformationError) Error() string {
	return fmt.Sprintf("transformation %s: %v", e.Name, e.Err)
}

func (e *TransformationError) Unwrap() error { return e.Err }
