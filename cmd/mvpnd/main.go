package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"mvpnd/internal/core"
	"mvpnd/internal/daemon"
)

// Build info — injected via ldflags at compile time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	dataDir := flag.String("data-dir", defaultDataDir(), "directory for settings and persisted state")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error, off")
	tunnelBinary := flag.String("tunnel-binary", "mvpnd-tunnel", "path to the external tunnel process")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mvpnd %s (commit=%s)\n", version, commit)
		return
	}

	core.Log = core.NewLogger(core.LogConfig{Level: *logLevel})
	defer core.Log.Close()

	release, err := daemon.EnsureSingleInstance()
	if err != nil {
		core.Log.Fatalf("Main", "refusing to start: %v", err)
	}
	defer release()

	d, err := daemon.New(daemon.Config{
		DataDir:      *dataDir,
		LogDir:       filepath.Join(*dataDir, "logs"),
		ResourceDir:  *dataDir,
		TunnelBinary: *tunnelBinary,
		Version:      version,
	})
	if err != nil {
		core.Log.Fatalf("Main", "startup: %v", err)
	}

	if err := d.Run(context.Background()); err != nil {
		core.Log.Fatalf("Main", "%v", err)
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "mvpnd")
	}
	return "."
}
