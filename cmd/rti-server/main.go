// rti-server is a demo HLA RTI process: it wires the message model,
// bundled-stream transport, protocol stack, connection/correlator,
// interest manager, sync-point manager, time-status state machine,
// and federation hub into a runnable TCP listener against a small
// fixed demo FOM. It is a loopback/demo binary only, the way the
// teacher's matter-light-device is a thin demo device rather than a
// production deployment.
//
// Usage:
//
//	rti-server [options]
//
// Options:
//
//	-addr  TCP listen address (default: ":8989")
package main

import (
	"flag"
	"log"

	"github.com/gletthereblight/portico/pkg/config"
	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultAddr is the default TCP listen address for the demo RTI
// process.
const DefaultAddr = ":8989"

func main() {
	addr := flag.String("addr", DefaultAddr, "TCP listen address")
	flag.Parse()

	loggerFactory := logging.NewDefaultLoggerFactory()

	srv := NewServer(ServerConfig{
		Graph:         buildDemoGraph(),
		RuntimeConfig: config.DefaultRuntimeConfig(),
		LoggerFactory: loggerFactory,
		Registerer:    prometheus.NewRegistry(),
	})

	log.Printf("rti-server listening on %s", *addr)
	if err := srv.Serve(*addr); err != nil {
		log.Fatalf("rti-server: %v", err)
	}
}
