// Package server implements the REST surface over the bridge state
// machine.
package server

import (
	"github.com/sirupsen/logrus"

	"github.com/most-network/bridge/core"
)

// Server wires the bridge queries and admin operations to HTTP
// handlers. There is no process-global bridge state; handlers close
// over an explicit *core.Bridge.
type Server struct {
	bridge *core.Bridge
	log    *logrus.Entry
}

// New returns a Server fronting bridge.
func New(bridge *core.Bridge, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{bridge: bridge, log: log}
}
