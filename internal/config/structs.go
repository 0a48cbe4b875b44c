package config

import (
	"time"

	"github.com/identilink/identilink/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Sweep     Sweep
	Audit     Audit
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string // domain name for the webserver
	Port         int    // listening port for the webserver
	ShutDownTime int    // wait time for shutdown in seconds
	URL          string // base url for the webserver
}

// Sweep configures the periodic suggestion-expiry sweep of the daemon.
type Sweep struct {
	// Interval between sweeps. Zero disables the in-process ticker, in
	// which case the `sweep` subcommand is expected to run from cron.
	Interval time.Duration
}

// Audit configures retention of the append-only link audit log.
type Audit struct {
	// Retention window for audit entries. Zero keeps entries forever.
	Retention time.Duration
}
