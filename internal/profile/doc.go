// Package profile loads and saves the XML profile document: the action
// library, tree roots, mode hierarchy, intermediate outputs, and the
// bindings that attach physical inputs to trees. Loading validates
// referential integrity; a dangling id is fatal to the load.
package profile
