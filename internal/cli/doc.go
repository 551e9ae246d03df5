// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It maps
// subcommands onto the application's build, watch and snapshot operations.
package cli
