// Package config loads engine configuration from STACKSMITH_-prefixed
// environment variables with sensible defaults for local use.
package config
