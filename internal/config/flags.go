package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/fundwatch/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-w string   wallet JSON-RPC URL
//	-f string   forum API base URL
//	-u string   forum bot user
//	-s string   forum token secret
//	-l uint     legacy matching height (0 disables)
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-a string   gRPC health bind address
//	-m string   metrics bind address
//	-v string   log level
//
// Only these flags are parsed; -c and -config are handled by parseJson.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-w", "-f", "-u", "-s", "-l", "-b", "-g", "-e", "-a", "-m", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.WalletRPCURL, "w", config.WalletRPCURL, "wallet JSON-RPC URL")
	fs.StringVar(&config.ForumBaseURL, "f", config.ForumBaseURL, "forum API base URL")
	fs.StringVar(&config.ForumBotUser, "u", config.ForumBotUser, "forum bot user")
	fs.StringVar(&config.ForumSecret, "s", config.ForumSecret, "forum token secret")
	fs.Uint64Var(&config.LegacyHeight, "l", config.LegacyHeight, "legacy matching height (0 disables)")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.GRPCHealthAddr, "a", config.GRPCHealthAddr, "gRPC health address")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	return fs.Parse(args)
}
