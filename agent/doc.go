// Package agent implements the composable step at the heart of the kernel.
//
// An Agent[S, V] wraps a function from an environment holding state S to a
// core.Result[S, V]. Agents are values: combinators build new agents out of
// existing ones and nothing is mutated along the way.
//
//  1. Sequencing: Then, Bind, Chain and the Then method
//  2. Values: Map and MapValue
//  3. Failure handling: Recover and RecoverValue
//  4. Routing: Branch and Guard
//  5. Bounded re-execution: Retry (retry boundary) and Repeat
//
// Leaf agents (Ask, CallTool, Remember, Recall) are the only place the
// capability ports of the environment are touched. Port failures surface as
// Error controls.
//
// Every combinator short-circuits on a non-Continue control: once a step
// returns Retry, Halt, Error or Abort no later step of the same chain runs.
package agent
