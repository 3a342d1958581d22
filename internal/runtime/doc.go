// Package runtime wires a loaded profile into a running dispatcher: it
// builds the functor tree per binding, resolves incoming events against the
// active mode with parent fallback, applies virtual-button conversion, and
// owns the pause state, the release-callback registry, and the background
// workers (macro engine, mouse motion). Failures at the dispatch boundary
// pause the runtime instead of crashing it.
package runtime
