package model

// TransformInfo describes one registry entry for listing purposes.
type TransformInfo struct {
	Name     string
	TextOnly bool
	Summary  string
}
