// Package actorcore is the root package of the actor runtime: it wires
// pid, supervision, mailbox, guardian, scheduler, registry, and ask into
// one externally usable ActorSystem, and fans a single logger backend out
// to every subpackage.
package actorcore

import (
	"github.com/btcsuite/btclog/v2"

	"github.com/arcrun/actorcore/actorutil"
	"github.com/arcrun/actorcore/ask"
	"github.com/arcrun/actorcore/guardian"
	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/registry"
	"github.com/arcrun/actorcore/scheduler"
	"github.com/arcrun/actorcore/supervision"
)

// log is the package-wide logger for the actorcore package itself. It
// defaults to a no-op logger so that the package is silent until a host
// application wires up a real backend via UseLogger.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the backing logger for the actorcore package and fans the
// same logger out to every subpackage that declares its own UseLogger,
// mirroring the way substrated's main.go wires up btclog subsystems for
// every internal package at startup.
func UseLogger(logger btclog.Logger) {
	log = logger

	supervision.UseLogger(logger)
	mailbox.UseLogger(logger)
	guardian.UseLogger(logger)
	scheduler.UseLogger(logger)
	registry.UseLogger(logger)
	ask.UseLogger(logger)
	actorutil.UseLogger(logger)
}
