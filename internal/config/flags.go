package config

import (
	"flag"
	"os"
	"time"

	"github.com/roadlog/uplink/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-u string   collector base URL (default from Config)
//	-db string  path of the local database file
//	-user string  collector login
//	-pass string  collector password
//	-t int      request timeout in seconds
//	-p int      parallel uploads
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-db", "-user", "-pass", "-t", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.CollectorURL, "u", cfg.CollectorURL, "collector base URL")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "path of the local database file")
	fs.StringVar(&cfg.Username, "user", cfg.Username, "collector login")
	fs.StringVar(&cfg.Password, "pass", cfg.Password, "collector password")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.IntVar(&cfg.UploadConcurrency, "p", cfg.UploadConcurrency, "parallel uploads")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
