// Package actions provides the concrete action kinds of the runtime. Each
// kind lives in one file pairing its data node with its functor and
// registers itself in the action kind table at init time.
//
// Importing this package (usually for side effects) makes every built-in
// kind available to the profile codec and the runtime.
package actions
