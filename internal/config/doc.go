// Package config loads, normalizes, and validates go-autoframe configuration.
//
// Settings come from three layers applied in order: built-in defaults, an
// optional TOML file, and AUTOFRAME_* environment variables. Both the capture
// process (autoframe run) and the sink process (autoframe sink) read the same
// file so the bridge address, service name and surface directory agree.
//
// The per-section structs hold plain TOML values; the converter methods turn
// them into the Config types of the packages that consume them.
package config
