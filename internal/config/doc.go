// Package config loads, normalizes, and validates kbaudit configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as GROQ_API_KEY. The
// Config type centralizes every knob the pipeline, dashboard, and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
