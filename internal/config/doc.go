// Package config loads runtime configuration for the fundwatch process.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. A .env file in the working directory, then FUNDWATCH_* environment
//     variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// The merged result is checked by (*Config).Validate.
//
// Supported flags
//
//	-d string   database DSN
//	-w string   wallet JSON-RPC URL
//	-f string   forum API base URL (paths are joined under /api)
//	-u string   forum bot user
//	-s string   forum token secret
//	-l uint     legacy matching height (0 disables)
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-a string   gRPC health address
//	-m string   metrics address
//	-v string   log level
//
// # JSON schema
//
// Durations are config.Duration values, so they can be either strings like
// "30s" or integer nanoseconds:
//
//	{
//	  "database_dsn": "postgres://localhost/fundwatch",
//	  "forum_base_url": "https://forum.example.org",
//	  "detect_interval": "30s",
//	  "legacy_height": 2500000
//	}
package config
