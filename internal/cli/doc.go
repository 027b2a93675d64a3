// Package cli parses command-line arguments into the application
// configuration, layering explicitly given flags over RECGRID_* environment
// variables, and maps usage errors to exit codes.
package cli
