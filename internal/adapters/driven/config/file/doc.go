// Package file provides file-based configuration storage for Crosscheck.
// Settings live in a TOML file and can be reloaded while the server runs.
package file
