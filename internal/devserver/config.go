package devserver

import (
	"flag"
	"os"
	"time"

	"github.com/mealqr/console/internal/flagx"
)

// Config holds the development backend settings.
type Config struct {
	Addr          string
	JWTSecret     string
	TokenValidity time.Duration
}

// LoadConfig returns defaults overridden by command-line flags:
//
//	-a string   listen address
//	-s string   JWT signing secret
//	-t duration issued token validity
func LoadConfig() *Config {
	cfg := &Config{
		Addr:          ":5001",
		JWTSecret:     "dev-only-secret",
		TokenValidity: 12 * time.Hour,
	}

	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-t"})
	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "listen address")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "JWT signing secret")
	fs.DurationVar(&cfg.TokenValidity, "t", cfg.TokenValidity, "issued token validity")
	if err := fs.Parse(args); err != nil {
		panic(err)
	}
	return cfg
}
