// Package test bundles helper functions that remove common boilerplate from
// the package tests.
//
// The Expect functions report a failure and let the test continue. The Demand
// functions stop the test; use them when later checks depend on the value,
// for example the length of a slice before iterating over it.
//
// ExpectSuccess and ExpectFailure interpret bool and error values: true and a
// nil error are successes. An untyped nil is also treated as success because
// that is how a nil error arrives through an interface{} argument.
package test
