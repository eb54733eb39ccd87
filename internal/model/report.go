package model

// SkipReason records a construct a transformation inspected but refused to
// rewrite because a safety precondition failed. Skips are informational, not
// errors.
type SkipReason struct {
	Transform string
	Line      int
	Detail    string
}

// LoopStats accumulates run statistics for the loop restructuring engine.
type LoopStats struct {
	LoopsInspected    int
	ChainsFlattened   int
	MaxDepthFlattened int
}

// Report collects everything one pipeline invocation wants to tell the caller
// beyond the transformed text.
type Report struct {
	// Applied lists the transformation names that ran, in order.
	Applied []string
	// Changed lists the applied names that actually modified the source.
	Changed []string
	// Failed lists transformations whose effect was discarded after a panic.
	Failed []string
	// Unknown lists requested names the registry does not know.
	Unknown []string

	Loops LoopStats
	Skips []SkipReason
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{}
}

// Skip appends a skip reason.
func (r *Report) Skip(transform string, line int, detail string) {
	r.Skips = append(r.Skips, SkipReason{Transform: transform, Line: line, Detail: detail})
}

// Result is one record of a batch transformation run: the driver feeds source
// text in and consumes transformed text plus a per-record error field.
type Result struct {
	Path    Path
	Input   string
	Output  string
	Changed bool
	ErrMsg  string
	Report  *Report
}
