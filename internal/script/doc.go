// Package script runs user Lua chunks against input events in a sandboxed
// interpreter. Each runner owns one Lua state; the state never gains access
// to the filesystem, the network, or process control.
package script
