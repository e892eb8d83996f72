package mailbox

import "github.com/btcsuite/btclog/v2"

// log is the package-wide logger for the mailbox package. It defaults to a
// no-op logger so that the package is silent until a host application wires
// up a real backend via UseLogger.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the backing logger used by the mailbox package. Host
// applications call this (typically via actorcore.UseLogger, which fans out
// to every subpackage) to route mailbox diagnostics into their own log
// pipeline.
func UseLogger(logger btclog.Logger) {
	log = logger
}
