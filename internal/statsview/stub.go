//go:build !statsview

package statsview

import "io"

// Server is a running stats page. Without the statsview build tag there is
// never one.
type Server struct{}

// Start does nothing in this build and returns nil.
func Start(_ string, _ io.Writer) *Server {
	return nil
}

// Stop does nothing.
func (s *Server) Stop() {}

// Available reports whether this build can serve the stats page.
func Available() bool {
	return false
}
