// Package action defines the data model of the remapping tree and the
// runtime contract of its executors.
//
// Every configured action is a Data node: a typed, serializable description
// with a stable UUID and zero or more named containers of child references.
// Nodes never embed each other; the Library owns all nodes in one arena and
// children are referenced by id, which makes shared sub-trees (Merge Axis,
// Reference) representable without object cycles. Cycle prevention is a
// reachability check at insertion time.
//
// For execution, every Data kind pairs with a Functor: a stateful executor
// constructed once per profile activation and invoked with (event, value)
// for every dispatched event. Functors own their child functors, mirroring
// the tree, and any runtime state (timers, rampers, scripting states).
// Functors holding resources implement Closer and are torn down on
// deactivation.
package action
