// Package config loads, normalizes, and validates Solar Recorder
// configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DEEPSEEK_API_KEY and SOLAR_CORE_URL. The Config type centralizes every knob
// the daemon and CLI need: collaborator binaries, remote sync credentials,
// stage timeouts, and storage directories.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
