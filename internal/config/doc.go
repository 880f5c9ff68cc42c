// Package config loads, normalizes, and validates automontage configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GOOGLE_APPLICATION_CREDENTIALS and GOOGLE_API_KEY. Language codes are
// canonicalised as BCP-47 tags before they reach the speech API.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
