package ai

import (
	"context"

	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

// Request describes one analysis of a piece of source code.
type Request struct {
	// SourceCode is the code to trace.
	SourceCode string
	// KindHint is the structure the caller expects the trace to visualize.
	// The analyzer may return data that contradicts it; the trace boundary
	// auto-detects in that case.
	KindHint trace.Kind
	// Input describes the concrete input the trace should run on, e.g.
	// "array [5,3,1]". Free-form.
	Input string
	// CacheKey, when set, lets the provider reuse an uploaded copy of the
	// source across repeated analyses (watch mode re-runs on every save).
	CacheKey string
}

// Analyzer turns source code into a step trace.
type Analyzer interface {
	Analyze(ctx context.Context, req *Request) (*trace.Sequence, error)
}
