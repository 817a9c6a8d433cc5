// Package trace records execution evidence. Recorder implements core.Tracer
// and keeps a flat, append-only list of Evidence; the tree is reconstructed
// on demand from parent IDs (Tree, Children). OtelTracer exports the same
// spans through OpenTelemetry instead. Tracing is runtime infrastructure only
// and never feeds back into agent state.
package trace
