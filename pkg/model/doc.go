// Package model describes LWM2M objects: which resources an object has, their
// value types and whether they hold several instances.
//
// # Object Model Hierarchy
//
//	Registry
//	├── ObjectModel 3 (Device, single instance)
//	│   ├── ResourceModel 0  Manufacturer    STRING   R
//	│   ├── ResourceModel 6  Power Sources   INTEGER  R  multiple
//	│   ├── ResourceModel 13 Current Time    TIME     RW
//	│   └── ...
//	└── ObjectModel 1024 (...)
//
// Codecs consult a Model to learn the declared type of a resource, since
// most wire formats do not carry it, and to tell single from multiple
// resources.
//
// # Sources
//
// Object models come from YAML definition files (see ParseYAML), from OMA
// DDF XML files (see ParseDDF), or from the definitions embedded in this
// package (see Default). A Registry merges them; a later definition of an
// object id replaces an earlier one.
//
// A Registry is read-only once built and safe for concurrent use.
package model
