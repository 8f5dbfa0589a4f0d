//go:build statsview

package statsview

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Server is a running stats page.
type Server struct {
	mgr  *statsview.ViewManager
	addr string
}

// Start serves the stats page at addr in the background. An empty addr means
// DefaultAddr. The page location is written to w.
func Start(addr string, w io.Writer) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))

	s := &Server{mgr: statsview.New(), addr: addr}
	go func() {
		if err := s.mgr.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logf(logger.Allow, "statsview", "server stopped: %v", err)
		}
	}()

	fmt.Fprintf(w, "stats at http://%s%s\n", addr, pagePath)
	return s
}

// Stop shuts the server down. It is safe to call on a nil Server.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	s.mgr.Stop()
}

// Available reports whether this build can serve the stats page.
func Available() bool {
	return true
}
