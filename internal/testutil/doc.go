// Package testutil contains helpers used across tests to reduce boilerplate
// when constructing environments and to observe agent invocations (call
// counters, scripted control sequences). It depends only on core and logging so
// every package, including agent and multi, can use it from its tests. Not
// intended for production usage.
package testutil
