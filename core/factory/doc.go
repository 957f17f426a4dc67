// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Solver engines and metrics sinks are both selected this way:
//
//	scheduler:
//	  solver:
//	    type: backtrack
//	    conf:
//	      check_every: 512
package factory
