// Package motion contains the background tasks that turn held inputs into
// continuous output: the relative-axis ramper, which keeps nudging a
// virtual axis while its source input is deflected, and the mouse motion
// controller, which emits relative mouse movement at a fixed or
// accelerating velocity.
//
// Both tasks tick every 10ms, are cancelled cooperatively through
// contexts, and are joined on runtime deactivation so no writer outlives
// the profile that spawned it.
package motion
