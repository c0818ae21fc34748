// Package node implements the LWM2M resource tree.
//
// # Tree Hierarchy
//
// An LWM2M client exposes a four level tree:
//
//	Root
//	└── Object (3 Device)
//	    └── ObjectInstance (0)
//	        ├── SingleResource (0 Manufacturer) = "Open Mobile Alliance"
//	        └── MultipleResource (6 Available Power Sources)
//	            ├── ResourceInstance (0) = 1
//	            └── ResourceInstance (1) = 5
//
// Every node is addressed by a Path ("/3/0/6/1"). Node is a closed sum
// type: the only implementations are *Root, *Object, *ObjectInstance,
// *SingleResource, *MultipleResource and *ResourceInstance, and callers
// dispatch with a type switch.
//
// # Immutability
//
// Nodes are built once by their constructors and never change. Constructors
// validate everything up front: duplicate child ids and values that do not
// match the declared type are rejected immediately. Decoded trees can be
// shared between goroutines without locking. Byte slices held by OPAQUE
// values must not be modified by callers.
//
// # Timestamped Nodes
//
// TimestampedNodes groups nodes by observation time for historical payloads.
// The zero time.Time means "no timestamp" and sorts before every real
// instant.
package node
