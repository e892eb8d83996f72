package registry

import "github.com/btcsuite/btclog/v2"

// log is the package-wide logger for the registry package. It defaults to
// a no-op logger so that the package is silent until a host application
// wires up a real backend via UseLogger.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the backing logger used by the registry package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
