// Package statsview serves runtime charts (heap, goroutines, GC pauses) of
// the emulator process while a long headless run is in progress. It is only
// functional when built with the statsview tag; otherwise Start does nothing
// and Available reports false.
//
// Charts are drawn by "github.com/go-echarts/statsview" and appear at
//
//	http://localhost:12600/debug/statsview
//
// unless another address is given.
package statsview

// DefaultAddr is the address the page is served at when none is given.
const DefaultAddr = "localhost:12600"

// pagePath is where statsview mounts its charts.
const pagePath = "/debug/statsview"
