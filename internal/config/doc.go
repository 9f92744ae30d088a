// Package config loads and validates the campack TOML configuration.
//
// Configuration lives at ~/.config/campack/config.toml by default; a
// campack.toml in the working directory is honored for project-local
// setups. All path fields are expanded (~ and relative components)
// before use.
package config
