// Package config loads, validates, and normalizes the castsync TOML
// configuration, including the per-feed sync definitions.
package config
