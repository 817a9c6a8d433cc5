// Package prompt provides versioned prompt templates. A Template declares its
// variables up front and renders deterministically; the Rendered result
// carries a SHA-256 hash of the text so runs can be audited without storing
// prompt content.
package prompt
