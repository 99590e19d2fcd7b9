package main

import (
	"net"

	"github.com/gletthereblight/portico/pkg/config"
	"github.com/gletthereblight/portico/pkg/conn"
	"github.com/gletthereblight/portico/pkg/fom"
	"github.com/gletthereblight/portico/pkg/federation"
	"github.com/gletthereblight/portico/pkg/transport"
	"github.com/gletthereblight/portico/pkg/wire"
	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// Server accepts TCP connections and wires each one into a fresh
// session (spec.md §4.9's per-connection ownership model: a
// Connection belongs to at most one Federation at a time, established
// the moment its session's JoinFederation handler runs).
type Server struct {
	listener net.Listener
	graph    fom.Graph
	rc       *federation.RtiContext
	rtCfg    config.RuntimeConfig

	loggerFactory logging.LoggerFactory
	registerer    prometheus.Registerer
}

// ServerConfig constructs a Server.
type ServerConfig struct {
	Graph         fom.Graph
	RuntimeConfig config.RuntimeConfig
	LoggerFactory logging.LoggerFactory
	Registerer    prometheus.Registerer
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		graph:         cfg.Graph,
		rc:            federation.NewRtiContext(),
		rtCfg:         cfg.RuntimeConfig,
		loggerFactory: cfg.LoggerFactory,
		registerer:    cfg.Registerer,
	}
}

func (s *Server) federationConfig() federation.Config {
	return s.rtCfg.ApplyToFederationConfig(federation.Config{
		Graph:             s.graph,
		LoggerFactory:     s.loggerFactory,
		MetricsRegisterer: s.registerer,
	})
}

// Serve listens on addr and accepts connections until the listener is
// closed.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln

	var log logging.LeveledLogger
	if s.loggerFactory != nil {
		log = s.loggerFactory.NewLogger("rti-server")
	}

	for {
		c, err := ln.Accept()
		if err != nil {
			if log != nil {
				log.Warnf("accept failed: %v", err)
			}
			return err
		}
		go s.handleConn(c)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// handleConn wires one accepted net.Conn through a TCP transport, a
// protocol stack, and a Connection, back-to-back the way
// wirePair-style tests construct a Connection/Transport pair: the
// Connection's TransportDown closes over the transport (assigned
// after), and the transport's UpHandler closes over the Connection's
// stack (captured once the Connection exists).
func (s *Server) handleConn(raw net.Conn) {
	var c *conn.Connection
	var tr *transport.TCP
	sess := newSession(s)

	var err error
	c, err = conn.New(conn.Config{
		AppReceiver: sess,
		TransportDown: func(frame []byte, ct wire.CallType) error {
			return tr.Down(frame, ct)
		},
		DefaultTimeout: s.rtCfg.ResponseCorrelator.DefaultTimeout,
		LoggerFactory:  s.loggerFactory,
	})
	if err != nil {
		raw.Close()
		return
	}
	sess.c = c

	enabled := s.rtCfg.Bundler.Enabled
	tr, err = transport.NewTCP(transport.TCPConfig{
		Conn:             raw,
		UpHandler:        func(frame []byte) { c.Stack().Up(frame) },
		BundlerEnabled:   &enabled,
		BundlerSizeLimit: s.rtCfg.Bundler.SizeLimit,
		BundlerTimeLimit: s.rtCfg.Bundler.TimeLimit,
		LoggerFactory:    s.loggerFactory,
	})
	if err != nil {
		raw.Close()
		return
	}

	if err := c.Open(); err != nil {
		raw.Close()
		return
	}
	if err := tr.Open(); err != nil {
		c.Close()
		return
	}
}
