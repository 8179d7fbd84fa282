package config

import (
	"flag"
	"os"
	"time"

	"adventkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   storage root directory (default from Config)
//	-g string   media staging directory
//	-s string   session database DSN
//	-t int      worker call timeout in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-g", "-s", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StorageDir, "d", cfg.StorageDir, "storage root directory")
	fs.StringVar(&cfg.StagingDir, "g", cfg.StagingDir, "media staging directory")
	fs.StringVar(&cfg.SessionDSN, "s", cfg.SessionDSN, "session database DSN")
	timeoutSec := fs.Int("t", int(cfg.RPCTimeout.Seconds()), "worker call timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RPCTimeout = time.Duration(*timeoutSec) * time.Second
}
