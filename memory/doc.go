// Package memory contains core.MemoryPort implementations. Agents depend on
// the port (see core.MemoryPort and the agent.Remember / agent.Recall leaves);
// pick an implementation such as InMemoryStore when wiring the environment.
//
// Memory is external to pipeline State: it is shared by every agent of a run
// and is not reconciled by Concurrent merges.
package memory
