// Package model holds provider-independent helpers for core.ModelPort
// implementations and a deterministic fake port.
//
// Provider adapters live in sub-packages (model/anthropic, model/openai) so
// the kernel itself never imports a vendor SDK. Use Scripted in tests and
// examples: it returns queued responses first and otherwise answers from a
// prompt table.
package model
