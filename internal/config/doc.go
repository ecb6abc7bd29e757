// Package config loads, normalizes, and validates talknote configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as OPENAI_API_KEY. The Config type centralizes every knob the
// daemon and CLI need so workspace directories, tool binaries, quality presets,
// and AI credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
