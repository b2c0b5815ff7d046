package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/basicsite/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g. ":8080")
//	-driver string     database driver: postgres or sqlite
//	-d string          database DSN
//	-max-open int      maximum open database connections
//	-max-idle int      maximum idle database connections
//	-sweep duration    expired session sweep interval (0 disables)
//	-insecure          send the session cookie without the Secure attribute
//	-log-level string  debug, info, warn or error
//
// os.Args is first filtered to the flags handled here with flagx.FilterArgs
// so the -c/-config flag of the JSON layer does not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-driver", "-d", "-max-open", "-max-idle", "-sweep", "-log-level"},
		"-insecure")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (postgres|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.MaxOpenConns, "max-open", config.MaxOpenConns, "maximum open database connections")
	fs.IntVar(&config.MaxIdleConns, "max-idle", config.MaxIdleConns, "maximum idle database connections")
	fs.DurationVar(&config.SweepInterval, "sweep", config.SweepInterval, "expired session sweep interval")
	fs.BoolVar(&config.InsecureCookies, "insecure", config.InsecureCookies, "allow session cookie over plain HTTP")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
