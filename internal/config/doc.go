// Package config loads the server configuration.
//
// Values come from Default, then an optional TOML file, then environment
// variables prefixed with PRESENTER_ (for example PRESENTER_SERVER_PORT).
// The legacy DB_PATH variable is still honoured for the database path.
// Load normalizes and validates the result.
package config
