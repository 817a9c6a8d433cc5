// Package multi provides multi-agent coordination built purely from the agent
// algebra: Handoff, Route, Emit, Broadcast, Sequential and Concurrent. All of
// them are ordinary agents over State; there is no scheduler.
//
// Agents taking part in a pipeline are resolved by name through the
// core.Registry carried by the environment, never through State, so State
// stays serializable.
package multi
