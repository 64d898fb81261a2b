package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-r string   storage root directory (default from Config)
//	-l string   legacy storage root to migrate from (default none)
//	-d string   SQLite database path (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-l", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StorageRootDir, "r", cfg.StorageRootDir, "storage root directory")
	fs.StringVar(&cfg.LegacyRootDir, "l", cfg.LegacyRootDir, "legacy storage root to migrate from")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path to the SQLite database")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
