package config

import (
	"flag"
	"os"

	"github.com/mealqr/console/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the distribution backend
//	-d string   data directory for credentials and logs
//
// The function filters os.Args to only the flags it knows about, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d"})

	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerAddr, "a", cfg.ServerAddr, "base URL of the distribution backend")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory for credentials and logs")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
