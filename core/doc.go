// Package core defines the value types shared by every layer of the kernel:
//
//   - Control, the closed set of outcome signals and their severity lattice
//   - Result, the (state, value, control) triple every agent step returns
//   - Env, the immutable per-invocation environment (state, registry, ports)
//   - Registry, the read-only name to agent lookup used by multi-agent primitives
//   - the capability port interfaces (model, tool, memory) and the Tracer
//
// The package holds no execution logic beyond Control.Merge. Composition lives
// in the agent and multi packages.
package core
