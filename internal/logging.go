package internal

import (
	"log"
	"os"
)

// Logf is the shared diagnostic logger. It defaults to log.Printf; tests may
// mute or capture it with SetLogger.
var Logf func(format string, v ...any) = log.Printf

// InitLogging sends the standard logger to stdout with microsecond timestamps.
func InitLogging() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

// SetLogger replaces Logf. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}
